package config

import (
	"time"

	"github.com/spf13/viper"
)

type Archivematica struct {
	// Base URL of the Archivematica dashboard
	Url string

	// Base URL of the storage service that serves AIP downloads
	StorageUrl string

	// Credentials passed as query parameters to every API call
	Username string
	ApiKey   string

	// Time limit for requests. The timeout includes connection time, any
	// redirects, and reading the response body
	RequestTimeout time.Duration

	// Time limit of the dial
	DialerTimeout time.Duration

	// Max time a connection may stay idle before it's closed
	IdleConnTimeout time.Duration

	// Minimal time between two requests
	RateInterval time.Duration
}

func setArchivematicaDefaults() {
	viper.SetDefault("Archivematica.Url", "http://localhost:81")
	viper.SetDefault("Archivematica.StorageUrl", "http://localhost:8000")
	viper.SetDefault("Archivematica.Username", "archiver")
	viper.SetDefault("Archivematica.ApiKey", "")
	viper.SetDefault("Archivematica.RequestTimeout", "30s")
	viper.SetDefault("Archivematica.DialerTimeout", "30s")
	viper.SetDefault("Archivematica.IdleConnTimeout", "31s")
	viper.SetDefault("Archivematica.RateInterval", "200ms")
}
