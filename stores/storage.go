package stores

import (
	"listsync/config"
	"listsync/core"
	"listsync/stores/aws"
	"listsync/stores/filesystem"
	"listsync/stores/memory"
	"listsync/stores/redis"
	"listsync/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// Store persists gateway sessions.
type Store interface {
	core.SessionStore
}

// GetStore returns the session store selected by cfg.StorageType.
func GetStore(cfg config.Config) Store {
	var store Store

	storageField := logrus.Fields{
		"storageType": cfg.StorageType,
	}

	switch cfg.StorageType {
	case "filesystem":
		storageField["basePath"] = cfg.LocalStoragePath
		store = filesystem.NewStore(cfg.LocalStoragePath)
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		s, err := sqlite.NewStore(cfg.DataSourceName)
		if err != nil {
			logrus.WithFields(storageField).WithError(err).Fatal("Failed to open sqlite store")
		}
		store = s
	case "s3":
		if cfg.S3BucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 storage type")
		}
		storageField["bucketName"] = cfg.S3BucketName
		store = aws.NewStore(cfg.S3BucketName)
	case "redis":
		s, err := redis.NewStore(cfg.RedisURL)
		if err != nil {
			logrus.WithFields(storageField).WithError(err).Fatal("Failed to connect to redis")
		}
		store = s
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
