package project_test

import (
	"context"
	"testing"

	"github.com/ganot/parley/internal/domain/project"
	"github.com/ganot/parley/internal/repository"
	"github.com/ganot/parley/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProjectService_Create(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("Create", ctx, mock.Anything).Return(nil)

	svc := project.NewService(repo, nil)
	proj, err := svc.Create(ctx, project.CreateRequest{Title: " Website redesign ", ClientID: "c1"})
	require.NoError(t, err)
	require.NotEmpty(t, proj.ID)
	require.Equal(t, "Website redesign", proj.Title)
	require.False(t, proj.HasFreelancer())
}

func TestProjectService_CreateValidation(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	svc := project.NewService(repo, nil)
	_, err := svc.Create(ctx, project.CreateRequest{Title: ""})
	require.ErrorIs(t, err, project.ErrInvalidInput)
}

func TestProjectService_GetNotFound(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "missing").Return((*project.Project)(nil), repository.ErrNotFound)

	svc := project.NewService(repo, nil)
	_, err := svc.Get(ctx, "missing")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestProjectService_AssignFreelancer(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("SetFreelancer", ctx, "p1", "f1").Return(nil)
	repo.On("Get", ctx, "p1").Return(&project.Project{ID: "p1", ClientID: "c1", FreelancerID: "f1"}, nil)

	svc := project.NewService(repo, nil)
	proj, err := svc.AssignFreelancer(ctx, "p1", "f1")
	require.NoError(t, err)
	require.True(t, proj.Involves("f1"))
	require.True(t, proj.Involves("c1"))
	require.False(t, proj.Involves("x"))
}
