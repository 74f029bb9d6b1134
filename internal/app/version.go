package app

const ServiceName = "message-service"

// Overridden at build time:
//
//	go build -ldflags "-X message-service/internal/app.Version=1.2.0 -X message-service/internal/app.GitCommit=$(git rev-parse --short HEAD)"
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
