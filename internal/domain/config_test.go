package domain

import (
	"math"
	"reflect"
	"testing"
)

func TestConfig_MergeOnlyAppliesNonZeroFields(t *testing.T) {
	base := Default()
	patch := Config{VIXCritical: 55, LogLevel: "debug"}

	merged := base.Merge(patch)

	if merged.VIXCritical != 55 {
		t.Fatalf("expected patched VIXCritical=55, got %v", merged.VIXCritical)
	}
	if merged.LogLevel != "debug" {
		t.Fatalf("expected patched LogLevel=debug, got %v", merged.LogLevel)
	}
	if merged.VIXWarning != base.VIXWarning {
		t.Fatalf("unset patch fields must keep the base value, got %v want %v", merged.VIXWarning, base.VIXWarning)
	}
}

func TestConfig_MigrateFillsZeroFieldsFromDefault(t *testing.T) {
	loaded := Config{VIXCritical: 99}

	migrated := Migrate(loaded)

	if migrated.VIXCritical != 99 {
		t.Fatalf("explicit loaded field must survive migration, got %v", migrated.VIXCritical)
	}
	if migrated.VIXWarning != Default().VIXWarning {
		t.Fatalf("zero-valued loaded field must fall back to default, got %v want %v", migrated.VIXWarning, Default().VIXWarning)
	}
}

func TestConfig_MigrateSanitizesNaN(t *testing.T) {
	loaded := Config{VIXCritical: math.NaN()}

	migrated := Migrate(loaded)

	if math.IsNaN(migrated.VIXCritical) {
		t.Fatalf("NaN must be sanitized before migration, got NaN")
	}
	if migrated.VIXCritical != Default().VIXCritical {
		t.Fatalf("a sanitized NaN field should fall back to default, got %v want %v", migrated.VIXCritical, Default().VIXCritical)
	}
}

func TestConfig_MigrateIsIdempotent(t *testing.T) {
	once := Migrate(Config{VIXCritical: 42})
	twice := Migrate(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("migrating an already-migrated config should be a no-op, got %+v vs %+v", once, twice)
	}
}
