// Package mocks provides mock implementations for testing the entropyval job system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Generate mock for JobRepository interface from internal/core package.
// This creates MockJobRepository with methods for all JobRepository interface methods:
// Create, GetByID, NextQueued, Start, SetPlan, AdvanceProgress, Complete, Fail, Stats
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/quantumgrade/entropyval/internal/core JobRepository

// Generate mock for EventRepository interface from internal/core package.
// This creates MockEventRepository with methods for all EventRepository interface methods:
// QueryWindow, QueryChunk, ChunkBoundaries
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=event_repository_mock.go github.com/quantumgrade/entropyval/internal/core EventRepository

// Generate mock for ResultRepository interface from internal/core package.
// This creates MockResultRepository with methods for all ResultRepository interface methods:
// InsertChunkResults, ListByRunID
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=result_repository_mock.go github.com/quantumgrade/entropyval/internal/core ResultRepository

// Generate mock for AssessmentClient interface from internal/core package.
// This creates MockAssessmentClient with methods for all AssessmentClient interface methods:
// Evaluate
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=assessment_client_mock.go github.com/quantumgrade/entropyval/internal/core AssessmentClient
