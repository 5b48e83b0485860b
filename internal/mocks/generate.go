// Package mocks provides mock implementations of the research pipeline ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the interfaces in internal/core.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	engine := mocks.NewMockResearchEngine(ctrl)
//	engine.EXPECT().Research(gomock.Any(), gomock.Any()).Return(reply, nil)
package mocks

// Generate mock for ResearchEngine interface from internal/core package.
// This creates MockResearchEngine with methods for all ResearchEngine interface methods:
// Research
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=research_engine_mock.go github.com/target/veille-api/internal/core ResearchEngine

// Generate mock for MetadataCache interface from internal/core package.
// This creates MockMetadataCache with methods for all MetadataCache interface methods:
// Get, Set, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=metadata_cache_mock.go github.com/target/veille-api/internal/core MetadataCache
