//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/carebridge/care-backend/internal/bootstrap"
	"github.com/carebridge/care-backend/internal/domain/intake"
	"github.com/carebridge/care-backend/internal/domain/match"
	"github.com/carebridge/care-backend/internal/infra/config"
	httpiface "github.com/carebridge/care-backend/internal/interface/http"
	"github.com/carebridge/care-backend/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideMatchConfig,
		provideIntakeConfig,
		provideIdentityConfig,
		provideActivityLog,
		providePipelineClient,
		providePostgresPool,
		provideCandidateSource,
		provideCandidateCache,
		provideDirectory,
		provideResolver,
		provideArchiver,
		match.NewService,
		intake.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
