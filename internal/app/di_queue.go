package app

import (
	"fmt"

	pipelineHTTP "github.com/allisson/outreach/internal/pipeline/http"
	queueRepository "github.com/allisson/outreach/internal/queue/repository"
	queueUseCase "github.com/allisson/outreach/internal/queue/usecase"
)

// QueueJobRepository returns the queue job repository based on database driver.
func (c *Container) QueueJobRepository() (queueUseCase.JobRepository, error) {
	var err error
	c.queueJobRepoInit.Do(func() {
		c.queueJobRepo, err = c.initQueueJobRepository()
		if err != nil {
			c.initErrors["queueJobRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["queueJobRepo"]; exists {
		return nil, storedErr
	}
	return c.queueJobRepo, nil
}

// QueueUseCase returns the durable job queue use case.
func (c *Container) QueueUseCase() (queueUseCase.QueueUseCase, error) {
	var err error
	c.queueUseCaseInit.Do(func() {
		c.queueUseCase, err = c.initQueueUseCase()
		if err != nil {
			c.initErrors["queueUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["queueUseCase"]; exists {
		return nil, storedErr
	}
	return c.queueUseCase, nil
}

// QueueHandler returns the HTTP handler for queue introspection.
func (c *Container) QueueHandler() (*pipelineHTTP.QueueHandler, error) {
	var err error
	c.queueHandlerInit.Do(func() {
		c.queueHandler, err = c.initQueueHandler()
		if err != nil {
			c.initErrors["queueHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["queueHandler"]; exists {
		return nil, storedErr
	}
	return c.queueHandler, nil
}

// initQueueJobRepository creates the queue job repository based on the database driver.
func (c *Container) initQueueJobRepository() (queueUseCase.JobRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for queue job repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return queueRepository.NewPostgreSQLJobRepository(db), nil
	case "mysql":
		return queueRepository.NewMySQLJobRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initQueueUseCase creates the queue use case with all its dependencies.
func (c *Container) initQueueUseCase() (queueUseCase.QueueUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for queue use case: %w", err)
	}

	jobRepo, err := c.QueueJobRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get queue job repository for queue use case: %w", err)
	}

	baseUseCase := queueUseCase.NewQueueUseCase(
		txManager,
		jobRepo,
		c.Logger(),
		c.config.QueueConcurrency,
		c.config.QueuePollInterval,
		c.config.QueueMaxAttempts,
		c.config.QueueRetryBaseDelay,
		c.config.QueueStuckGracePeriod,
		c.config.QueueFallbackPacing,
		c.config.QueueHistoryLimit,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for queue use case: %w", err)
		}
		return queueUseCase.NewQueueUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initQueueHandler creates the queue HTTP handler with all its dependencies.
func (c *Container) initQueueHandler() (*pipelineHTTP.QueueHandler, error) {
	useCase, err := c.QueueUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get queue use case for queue handler: %w", err)
	}

	return pipelineHTTP.NewQueueHandler(useCase, c.Logger()), nil
}
