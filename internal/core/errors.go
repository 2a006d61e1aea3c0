package core

import (
	"errors"

	"github.com/jo-hoe/arconverter/internal/artifacts"
	"github.com/jo-hoe/arconverter/internal/backend/database"
)

// Store and artifact errors are re-exported so callers only need this package
var (
	ErrSessionNotFound   = database.ErrSessionNotFound
	ErrVideoLinkNotFound = database.ErrVideoLinkNotFound
	ErrNoVideoLinks      = artifacts.ErrNoVideoLinks
)

var (
	ErrNotProcessed          = errors.New("image has not been processed yet")
	ErrNoMarker              = errors.New("marker has not been generated yet")
	ErrInvalidProcessOptions = errors.New("invalid processing options")
	ErrUnknownDownload       = errors.New("unknown download")
)
