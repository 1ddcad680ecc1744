package cli

import (
	appWiring "github.com/felixgeelhaar/questa/internal/app"
	playerCommands "github.com/felixgeelhaar/questa/internal/player/application/commands"
	playerQueries "github.com/felixgeelhaar/questa/internal/player/application/queries"
	questCommands "github.com/felixgeelhaar/questa/internal/quests/application/commands"
	questQueries "github.com/felixgeelhaar/questa/internal/quests/application/queries"
	syncQueries "github.com/felixgeelhaar/questa/internal/sync/application/queries"
	"github.com/google/uuid"
)

// App holds the CLI application dependencies.
type App struct {
	// Quest Command Handlers
	CreateQuestHandler   *questCommands.CreateQuestHandler
	UpdateQuestHandler   *questCommands.UpdateQuestHandler
	CompleteQuestHandler *questCommands.CompleteQuestHandler
	SkipQuestHandler     *questCommands.SkipQuestHandler

	// Quest Query Handlers
	ListQuestsHandler *questQueries.ListQuestsHandler

	// Player Command Handlers
	UseItemHandler       *playerCommands.UseItemHandler
	ActivateBoostHandler *playerCommands.ActivateBoostHandler

	// Player Query Handlers
	GetPlayerHandler *playerQueries.GetPlayerHandler

	// Sync
	SyncDispatcher    *appWiring.SyncDispatcher
	SyncStatusHandler *syncQueries.SyncStatusHandler

	// Current user (configured per environment)
	CurrentUserID uuid.UUID
}

// NewApp creates a new CLI application from the wired container.
func NewApp(container *appWiring.Container) *App {
	return &App{
		CreateQuestHandler:   container.CreateQuestHandler,
		UpdateQuestHandler:   container.UpdateQuestHandler,
		CompleteQuestHandler: container.CompleteQuestHandler,
		SkipQuestHandler:     container.SkipQuestHandler,
		ListQuestsHandler:    container.ListQuestsHandler,
		UseItemHandler:       container.UseItemHandler,
		ActivateBoostHandler: container.ActivateBoostHandler,
		GetPlayerHandler:     container.GetPlayerHandler,
		SyncDispatcher:       container.SyncDispatcher,
		SyncStatusHandler:    container.SyncStatusHandler,
		CurrentUserID:        uuid.Nil,
	}
}

// SetCurrentUserID updates the current user ID.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
