package postgres

import (
	"context"
	"errors"

	directoryDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/directory"
	"github.com/chronotracker/chronotracker-api/internal/directory"
	"gorm.io/gorm"
)

type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) directory.RepositoryAPI {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) CreateClient(ctx context.Context, c *directoryDatamodel.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *DirectoryRepository) GetClient(ctx context.Context, id int64) (*directoryDatamodel.Client, error) {
	var c directoryDatamodel.Client
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *DirectoryRepository) CreateProject(ctx context.Context, p *directoryDatamodel.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *DirectoryRepository) GetProject(ctx context.Context, id int64) (*directoryDatamodel.Project, error) {
	var p directoryDatamodel.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *DirectoryRepository) ListProjects(ctx context.Context) ([]*directoryDatamodel.Project, error) {
	var projects []*directoryDatamodel.Project
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&projects).Error
	return projects, err
}

func (r *DirectoryRepository) CreateActivity(ctx context.Context, a *directoryDatamodel.Activity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *DirectoryRepository) GetActivity(ctx context.Context, id int64) (*directoryDatamodel.Activity, error) {
	var a directoryDatamodel.Activity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *DirectoryRepository) ListActivities(ctx context.Context, projectID int64) ([]*directoryDatamodel.Activity, error) {
	var activities []*directoryDatamodel.Activity
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Order("name ASC").
		Find(&activities).Error
	return activities, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return directory.ErrNotFound
	}
	return err
}
