package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"portalpos/internal/dto"
	"portalpos/internal/model"
	"portalpos/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	configCachePrefix = "config:sede:"
	configCacheTTL    = 5 * time.Minute
)

// ConfigService serves per-sede register settings. Reads go through a Redis
// cache; a sede without a stored row gets defaults so the caja core never
// has to special-case missing configuration.
type ConfigService interface {
	Obtener(ctx context.Context, sedeID string) (*model.SedeConfig, error)
	Actualizar(ctx context.Context, sedeID string, req dto.ActualizarConfigRequest) (*model.SedeConfig, error)
}

type configService struct {
	repo      repository.SedeConfigRepository
	rdb       *redis.Client // nil in unit tests — cache becomes a no-op
	defaultTZ string
}

func NewConfigService(repo repository.SedeConfigRepository, rdb *redis.Client, defaultTZ string) ConfigService {
	return &configService{repo: repo, rdb: rdb, defaultTZ: defaultTZ}
}

func (s *configService) Obtener(ctx context.Context, sedeID string) (*model.SedeConfig, error) {
	if cached := s.fromCache(ctx, sedeID); cached != nil {
		return cached, nil
	}

	cfg, err := s.repo.Find(ctx, sedeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = s.defaults(sedeID)
	} else if err != nil {
		return nil, err
	}

	s.toCache(ctx, cfg)
	return cfg, nil
}

func (s *configService) Actualizar(ctx context.Context, sedeID string, req dto.ActualizarConfigRequest) (*model.SedeConfig, error) {
	cfg, err := s.repo.Find(ctx, sedeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = s.defaults(sedeID)
	} else if err != nil {
		return nil, err
	}

	if req.AutoCierreActivo != nil {
		cfg.AutoCierreActivo = *req.AutoCierreActivo
	}
	if req.HoraAutoCierre != nil {
		if _, err := time.Parse("15:04", *req.HoraAutoCierre); err != nil {
			return nil, errors.New("hora_auto_cierre inválida, formato esperado HH:MM")
		}
		cfg.HoraAutoCierre = *req.HoraAutoCierre
	}
	if req.UmbralAlertaDesvio != nil {
		if req.UmbralAlertaDesvio.IsNegative() {
			return nil, errors.New("umbral_alerta_desvio no puede ser negativo")
		}
		cfg.UmbralAlertaDesvio = *req.UmbralAlertaDesvio
	}
	if req.RequiereClaveSupervisor != nil {
		cfg.RequiereClaveSupervisor = *req.RequiereClaveSupervisor
	}
	if req.ClaveSupervisor != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.ClaveSupervisor), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		h := string(hash)
		cfg.ClaveSupervisorHash = &h
	}
	if req.TelefonoNotificacion != nil {
		cfg.TelefonoNotificacion = req.TelefonoNotificacion
	}
	if req.EmailSupervisor != nil {
		cfg.EmailSupervisor = req.EmailSupervisor
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, errors.New("timezone inválida")
		}
		cfg.Timezone = *req.Timezone
	}

	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, err
	}
	s.invalidate(ctx, sedeID)
	return cfg, nil
}

func (s *configService) defaults(sedeID string) *model.SedeConfig {
	return &model.SedeConfig{
		SedeID:             sedeID,
		HoraAutoCierre:     "22:00",
		UmbralAlertaDesvio: decimal.Zero,
		Timezone:           s.defaultTZ,
	}
}

// ── Cache helpers ─────────────────────────────────────────────────────────────
// The hash never leaves the service through DTOs, but it IS cached: the close
// path verifies the supervisor password on every imbalanced cierre.

func (s *configService) fromCache(ctx context.Context, sedeID string) *model.SedeConfig {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, configCachePrefix+sedeID).Bytes()
	if err != nil {
		return nil
	}
	var cfg model.SedeConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil
	}
	return &cfg
}

func (s *configService) toCache(ctx context.Context, cfg *model.SedeConfig) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, configCachePrefix+cfg.SedeID, raw, configCacheTTL).Err(); err != nil {
		log.Debug().Str("sede_id", cfg.SedeID).Err(err).Msg("config: cache set falló")
	}
}

func (s *configService) invalidate(ctx context.Context, sedeID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, configCachePrefix+sedeID).Err(); err != nil {
		log.Debug().Str("sede_id", sedeID).Err(err).Msg("config: cache del falló")
	}
}

// ConfigToResponse strips secrets for the HTTP surface.
func ConfigToResponse(cfg *model.SedeConfig) *dto.SedeConfigResponse {
	return &dto.SedeConfigResponse{
		SedeID:                  cfg.SedeID,
		AutoCierreActivo:        cfg.AutoCierreActivo,
		HoraAutoCierre:          cfg.HoraAutoCierre,
		UmbralAlertaDesvio:      cfg.UmbralAlertaDesvio,
		RequiereClaveSupervisor: cfg.RequiereClaveSupervisor,
		TelefonoNotificacion:    cfg.TelefonoNotificacion,
		EmailSupervisor:         cfg.EmailSupervisor,
		Timezone:                cfg.Timezone,
	}
}
