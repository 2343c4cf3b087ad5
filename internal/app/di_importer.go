package app

import (
	"fmt"

	importerRepository "github.com/allisson/outreach/internal/importer/repository"
	importerUseCase "github.com/allisson/outreach/internal/importer/usecase"
)

// ImportJobRepository returns the import job repository based on database driver.
func (c *Container) ImportJobRepository() (importerUseCase.ImportJobRepository, error) {
	var err error
	c.importJobRepoInit.Do(func() {
		c.importJobRepo, err = c.initImportJobRepository()
		if err != nil {
			c.initErrors["importJobRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["importJobRepo"]; exists {
		return nil, storedErr
	}
	return c.importJobRepo, nil
}

// ImporterUseCase returns the bulk prospect import use case.
func (c *Container) ImporterUseCase() (importerUseCase.ImporterUseCase, error) {
	var err error
	c.importerUseCaseInit.Do(func() {
		c.importerUseCase, err = c.initImporterUseCase()
		if err != nil {
			c.initErrors["importerUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["importerUseCase"]; exists {
		return nil, storedErr
	}
	return c.importerUseCase, nil
}

// initImportJobRepository creates the import job repository based on the database driver.
func (c *Container) initImportJobRepository() (importerUseCase.ImportJobRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for import job repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return importerRepository.NewPostgreSQLImportJobRepository(db), nil
	case "mysql":
		return importerRepository.NewMySQLImportJobRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initImporterUseCase creates the importer use case with all its dependencies.
func (c *Container) initImporterUseCase() (importerUseCase.ImporterUseCase, error) {
	importJobRepo, err := c.ImportJobRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get import job repository for importer use case: %w", err)
	}

	prospectRepo, err := c.ProspectRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get prospect repository for importer use case: %w", err)
	}

	campaignRepo, err := c.CampaignRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign repository for importer use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for importer use case: %w", err)
	}

	return importerUseCase.NewImporterUseCase(
		importJobRepo,
		prospectRepo,
		campaignRepo,
		txManager,
		c.Logger(),
	), nil
}
