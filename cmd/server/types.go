package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/tetherlabs/authgw/internal/authn"
	"codeberg.org/tetherlabs/authgw/internal/config"
	"codeberg.org/tetherlabs/authgw/internal/identity"
	"codeberg.org/tetherlabs/authgw/tether/profiles"
)

// holds all dependencies and state for the API server
type Server struct {
	db          *pgxpool.Pool
	config      *config.Config
	profileRepo *profiles.Repository
	identity    *identity.Client
	verifier    *identity.Verifier
	authService *authn.Service
	router      *gin.Engine
}
