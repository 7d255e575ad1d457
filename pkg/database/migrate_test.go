package database

import (
	"testing"

	"lab-booking/pkg/utils"
)

func TestMigrationURL(t *testing.T) {
	cfg := utils.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		Name:     "lab_booking",
		User:     "app",
		Password: "p@ss word",
		SSLMode:  "disable",
	}

	want := "postgres://app:p%40ss%20word@db:5432/lab_booking?sslmode=disable"
	if got := migrationURL(cfg); got != want {
		t.Errorf("migrationURL = %q, want %q", got, want)
	}
}

func TestConnString_Quotes(t *testing.T) {
	cfg := utils.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		Name:     "lab_booking",
		User:     "app",
		Password: `it's secret`,
		SSLMode:  "disable",
	}

	want := `host='db' port='5432' dbname='lab_booking' user='app' password='it\'s secret' sslmode='disable'`
	if got := ConnString(cfg); got != want {
		t.Errorf("ConnString = %s, want %s", got, want)
	}
}
