package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/estatehub-backend/internal/listingevents"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type ServiceParams struct {
	Logger       *logger.Logger
	Dependencies map[string]pinger
	Consumer     *listingevents.Consumer
	// Metrics serves the job metrics; optional.
	Metrics *http.Server
}

// Service runs the listing event consumer until its context ends.
type Service struct {
	logg     *logger.Logger
	deps     map[string]pinger
	consumer *listingevents.Consumer
	metrics  *http.Server
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("listing event consumer is required")
	}
	return &Service{
		logg:     params.Logger,
		deps:     params.Dependencies,
		consumer: params.Consumer,
		metrics:  params.Metrics,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for name, dep := range s.deps {
		if err := dep.Ping(ctx); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "dependency", name), "worker.dependency_unready", err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	s.logg.Info(ctx, "worker.ready")
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.consumer.Run(ctx)
	}()
	if s.metrics != nil {
		go func() {
			if err := s.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.metrics.Shutdown(shutdownCtx)
		}()
	}

	select {
	case <-ctx.Done():
		s.logg.Info(ctx, "worker.stopping")
		return nil
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			s.logg.Error(ctx, "worker.consumer_stopped", err)
			return err
		}
		return nil
	}
}
