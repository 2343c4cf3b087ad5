package app

import (
	"fmt"

	campaignRepository "github.com/allisson/outreach/internal/campaign/repository"
	emailjobRepository "github.com/allisson/outreach/internal/emailjob/repository"
	pipelineHTTP "github.com/allisson/outreach/internal/pipeline/http"
	pipelineUseCase "github.com/allisson/outreach/internal/pipeline/usecase"
	prospectRepository "github.com/allisson/outreach/internal/prospect/repository"
)

// CampaignRepository returns the campaign repository based on database driver.
func (c *Container) CampaignRepository() (campaignRepository.Repository, error) {
	var err error
	c.campaignRepoInit.Do(func() {
		c.campaignRepo, err = c.initCampaignRepository()
		if err != nil {
			c.initErrors["campaignRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["campaignRepo"]; exists {
		return nil, storedErr
	}
	return c.campaignRepo, nil
}

// ProspectRepository returns the prospect repository based on database driver.
func (c *Container) ProspectRepository() (prospectRepository.Repository, error) {
	var err error
	c.prospectRepoInit.Do(func() {
		c.prospectRepo, err = c.initProspectRepository()
		if err != nil {
			c.initErrors["prospectRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["prospectRepo"]; exists {
		return nil, storedErr
	}
	return c.prospectRepo, nil
}

// EmailJobRepository returns the email job repository based on database driver.
func (c *Container) EmailJobRepository() (emailjobRepository.Repository, error) {
	var err error
	c.emailJobRepoInit.Do(func() {
		c.emailJobRepo, err = c.initEmailJobRepository()
		if err != nil {
			c.initErrors["emailJobRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["emailJobRepo"]; exists {
		return nil, storedErr
	}
	return c.emailJobRepo, nil
}

// PipelineUseCase returns the campaign pipeline use case.
func (c *Container) PipelineUseCase() (pipelineUseCase.PipelineUseCase, error) {
	var err error
	c.pipelineUseCaseInit.Do(func() {
		c.pipelineUseCase, err = c.initPipelineUseCase()
		if err != nil {
			c.initErrors["pipelineUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["pipelineUseCase"]; exists {
		return nil, storedErr
	}
	return c.pipelineUseCase, nil
}

// CampaignHandler returns the HTTP handler for campaign pipeline operations.
func (c *Container) CampaignHandler() (*pipelineHTTP.CampaignHandler, error) {
	var err error
	c.campaignHandlerInit.Do(func() {
		c.campaignHandler, err = c.initCampaignHandler()
		if err != nil {
			c.initErrors["campaignHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["campaignHandler"]; exists {
		return nil, storedErr
	}
	return c.campaignHandler, nil
}

// initCampaignRepository creates the campaign repository based on the database driver.
func (c *Container) initCampaignRepository() (campaignRepository.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for campaign repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return campaignRepository.NewPostgreSQLCampaignRepository(db), nil
	case "mysql":
		return campaignRepository.NewMySQLCampaignRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initProspectRepository creates the prospect repository based on the database driver.
func (c *Container) initProspectRepository() (prospectRepository.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for prospect repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return prospectRepository.NewPostgreSQLProspectRepository(db), nil
	case "mysql":
		return prospectRepository.NewMySQLProspectRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initEmailJobRepository creates the email job repository based on the database driver.
func (c *Container) initEmailJobRepository() (emailjobRepository.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for email job repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return emailjobRepository.NewPostgreSQLEmailJobRepository(db), nil
	case "mysql":
		return emailjobRepository.NewMySQLEmailJobRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPipelineUseCase creates the pipeline use case with all its dependencies.
func (c *Container) initPipelineUseCase() (pipelineUseCase.PipelineUseCase, error) {
	campaignRepo, err := c.CampaignRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign repository for pipeline use case: %w", err)
	}

	prospectRepo, err := c.ProspectRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get prospect repository for pipeline use case: %w", err)
	}

	emailJobRepo, err := c.EmailJobRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get email job repository for pipeline use case: %w", err)
	}

	queue, err := c.QueueUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get queue use case for pipeline use case: %w", err)
	}

	collaborators := c.Collaborators()
	logger := c.Logger()

	baseUseCase := pipelineUseCase.NewPipelineUseCase(
		campaignRepo,
		prospectRepo,
		emailJobRepo,
		queue,
		collaborators,
		collaborators,
		collaborators,
		logger,
		c.config.PipelineBatchSize,
		c.config.PipelineBatchesPerSec,
		c.config.PipelineStageTimeout,
		c.config.QueueMaxAttempts,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for pipeline use case: %w", err)
		}
		return pipelineUseCase.NewPipelineUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initCampaignHandler creates the campaign HTTP handler with all its dependencies.
func (c *Container) initCampaignHandler() (*pipelineHTTP.CampaignHandler, error) {
	useCase, err := c.PipelineUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline use case for campaign handler: %w", err)
	}

	return pipelineHTTP.NewCampaignHandler(useCase, c.Logger()), nil
}
