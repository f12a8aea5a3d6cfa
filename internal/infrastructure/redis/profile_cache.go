package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ProfileRepository = (*ProfileCache)(nil)

const profileKeyPrefix = "stock-ledger:profile:"

// ProfileCache decora un ProfileRepository con caché en Redis.
// Si Redis falla se consulta el repositorio; los perfiles inexistentes no se guardan.
type ProfileCache struct {
	client redis.UniversalClient
	next   repository.ProfileRepository
	ttl    time.Duration
	log    zerolog.Logger
}

// NewProfileCache construye el decorador.
func NewProfileCache(client redis.UniversalClient, next repository.ProfileRepository, ttl time.Duration, log zerolog.Logger) *ProfileCache {
	return &ProfileCache{client: client, next: next, ttl: ttl, log: log}
}

type cachedProfile struct {
	UserID    string    `json:"user_id"`
	CompanyID string    `json:"company_id"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetByUserID lee de Redis y, en caso de fallo o ausencia, del repositorio.
func (c *ProfileCache) GetByUserID(ctx context.Context, userID string) (*entity.Profile, error) {
	key := profileKeyPrefix + userID
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cp cachedProfile
		if jsonErr := json.Unmarshal(raw, &cp); jsonErr == nil {
			p := entity.Profile(cp)
			return &p, nil
		}
		c.log.Warn().Str("user_id", userID).Msg("perfil en caché ilegible, se consulta la base")
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn().Err(err).Str("user_id", userID).Msg("redis no disponible, se consulta la base")
	}

	p, err := c.next.GetByUserID(ctx, userID)
	if err != nil || p == nil {
		return p, err
	}
	if data, err := json.Marshal(cachedProfile(*p)); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Debug().Err(err).Str("user_id", userID).Msg("no se pudo guardar el perfil en caché")
		}
	}
	return p, nil
}
