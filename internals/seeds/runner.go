package seeds

import (
	"path/filepath"

	"gorm.io/gorm"

	"studioku_backend/internals/seeds/studio"
	"studioku_backend/internals/seeds/users"
)

// RunAllSeeds loads the JSON fixtures under dir. Sedes first: staff and
// memberships reference them by name.
func RunAllSeeds(db *gorm.DB, dir string) {
	studio.SeedStudioFromJSON(db, filepath.Join(dir, "studio", "data_studio.json"))
	users.SeedStaffFromJSON(db, filepath.Join(dir, "users", "data_staff.json"))
}
