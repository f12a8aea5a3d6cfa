package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger-api/pkg/config"
)

func TestRuntimeParams_TopeDeSentenciaSigueALaOperacion(t *testing.T) {
	params := runtimeParams(config.DBConfig{StatementTimeout: 3 * time.Second})

	assert.Equal(t, "3000", params["statement_timeout"])
	assert.Equal(t, "3000", params["lock_timeout"])
	assert.Equal(t, "stock-ledger", params["application_name"])
}

func TestRuntimeParams_SinTopeNoFijaStatementTimeout(t *testing.T) {
	params := runtimeParams(config.DBConfig{})

	assert.NotContains(t, params, "statement_timeout")
	assert.NotContains(t, params, "lock_timeout")
	assert.Equal(t, "60000", params["idle_in_transaction_session_timeout"])
}
