package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

func TestCategorySet_ParseNormaliza(t *testing.T) {
	set := entity.MustCategorySet(entity.DefaultCategories...)

	c, err := set.Parse("  SIAP_Jual ")

	require.NoError(t, err)
	assert.Equal(t, entity.CategoryReadyToSell, c)
}

func TestCategorySet_RechazaCategoriaFantasma(t *testing.T) {
	set := entity.MustCategorySet(entity.DefaultCategories...)

	_, err := set.Parse("siap-jual")

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "category", vErr.Field)
}

func TestNewCategorySet_Repetida(t *testing.T) {
	_, err := entity.NewCategorySet("riset", "RISET")
	assert.Error(t, err)
}

func TestCategorySet_AllRespetaOrden(t *testing.T) {
	set, err := entity.NewCategorySet("retur", "riset")
	require.NoError(t, err)

	assert.Equal(t, []entity.Category{"retur", "riset"}, set.All())
}
