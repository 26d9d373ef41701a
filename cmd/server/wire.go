// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"postboard_backend/internal/app"
	"postboard_backend/internal/auth"
	"postboard_backend/internal/config"
	"postboard_backend/internal/filestorage"
	"postboard_backend/internal/firebase"
	"postboard_backend/internal/jobs"
	"postboard_backend/internal/platform/database"
	"postboard_backend/internal/platform/elasticsearch"
	"postboard_backend/internal/platform/logger"
	"postboard_backend/internal/post"
	"postboard_backend/internal/post/esutil"
	"postboard_backend/internal/shared"
	"postboard_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		elasticsearch.NewClient,
		provideCleanup,

		// Identity provider
		firebase.NewFirebaseService,
		wire.Bind(new(firebase.Service), new(*firebase.FirebaseService)),

		// Session tokens and signout blocklist
		auth.NewJWTService,
		wire.Bind(new(shared.TokenService), new(*auth.JWTService)),
		provideBlocklist,
		wire.Bind(new(shared.TokenBlocklistService), new(*auth.InMemoryBlocklistService)),

		// Users
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(shared.Service), new(*user.ServiceImplementation)),

		// Uploaded images
		provideFileStorage,
		wire.Bind(new(filestorage.Service), new(*filestorage.LocalStorageService)),

		// Posts
		post.NewGORMRepository,
		esutil.NewESIndexer,
		post.NewService,
		wire.Bind(new(post.Service), new(*post.ServiceImplementation)),

		// Handlers
		auth.NewHandler,
		post.NewHandler,

		// Jobs
		jobs.NewUploadSweepJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
