package service

import (
	"context"
	"testing"

	"portalpos/internal/dto"
	"portalpos/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestConfigObtenerDefaults(t *testing.T) {
	svc := NewConfigService(newMemConfigRepo(), nil, "America/Lima")

	cfg, err := svc.Obtener(context.Background(), "sede-nueva")

	require.NoError(t, err)
	assert.Equal(t, "sede-nueva", cfg.SedeID)
	assert.False(t, cfg.AutoCierreActivo)
	assert.Equal(t, "22:00", cfg.HoraAutoCierre)
	assert.Equal(t, "America/Lima", cfg.Timezone)
}

func TestConfigActualizar(t *testing.T) {
	repo := newMemConfigRepo()
	svc := NewConfigService(repo, nil, "America/Lima")

	activo := true
	hora := "21:30"
	umbral := d("50.00")
	clave := "supervisor123"
	cfg, err := svc.Actualizar(context.Background(), "sede-01", dto.ActualizarConfigRequest{
		AutoCierreActivo:   &activo,
		HoraAutoCierre:     &hora,
		UmbralAlertaDesvio: &umbral,
		ClaveSupervisor:    &clave,
	})

	require.NoError(t, err)
	assert.True(t, cfg.AutoCierreActivo)
	assert.Equal(t, "21:30", cfg.HoraAutoCierre)
	require.NotNil(t, cfg.ClaveSupervisorHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*cfg.ClaveSupervisorHash), []byte(clave)))
}

func TestConfigActualizarValidaciones(t *testing.T) {
	svc := NewConfigService(newMemConfigRepo(), nil, "America/Lima")
	ctx := context.Background()

	mala := "veintidos"
	_, err := svc.Actualizar(ctx, "sede-01", dto.ActualizarConfigRequest{HoraAutoCierre: &mala})
	assert.ErrorContains(t, err, "hora_auto_cierre")

	negativo := d("-1.00")
	_, err = svc.Actualizar(ctx, "sede-01", dto.ActualizarConfigRequest{UmbralAlertaDesvio: &negativo})
	assert.ErrorContains(t, err, "umbral")

	tz := "Marte/Olympus"
	_, err = svc.Actualizar(ctx, "sede-01", dto.ActualizarConfigRequest{Timezone: &tz})
	assert.ErrorContains(t, err, "timezone")
}

func TestConfigResponseSinHash(t *testing.T) {
	h := "$2a$12$hash"
	resp := ConfigToResponse(&model.SedeConfig{
		SedeID:                  "sede-01",
		RequiereClaveSupervisor: true,
		ClaveSupervisorHash:     &h,
		Timezone:                "America/Lima",
	})

	assert.True(t, resp.RequiereClaveSupervisor)
	// El hash jamás sale por la API; el DTO ni siquiera tiene el campo.
	assert.Equal(t, "sede-01", resp.SedeID)
}
