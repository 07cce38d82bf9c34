package config

import (
	"github.com/yusufsyaifudin/migtest/pkg/connexec"
	"github.com/yusufsyaifudin/migtest/pkg/multidb"
)

type Log struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Migration points the checks to a database and a directory of sql-migrate files.
type Migration struct {
	DBLabel string `yaml:"dbLabel" validate:"required"`
	Dir     string `yaml:"dir" validate:"required"`

	// Table records applied migrations, default to gorp_migrations
	Table string `yaml:"table" validate:"omitempty,sqlident"`

	// RevisionDir receives generated revision files, empty means keep them in memory
	RevisionDir string `yaml:"revisionDir"`
}

// Config contains application config
type Config struct {
	Log Log `yaml:"log"`

	Database multidb.DatabaseResources `yaml:"database" validate:"required"`

	Migration Migration `yaml:"migration"`

	// RevisionUpgradeData is revision => rows inserted right before upgrading to that revision
	RevisionUpgradeData map[string]connexec.SeedData `yaml:"revisionUpgradeData"`
}
