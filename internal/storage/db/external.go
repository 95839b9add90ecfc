package db

import "fmt"

// TrackExternalMod records a mod living outside the profile's mods folder.
// Tracking the same path twice is a no-op.
func (d *DB) TrackExternalMod(gameID, profileID, path string) error {
	_, err := d.Exec(`
		INSERT INTO external_mods (game_id, profile_id, path)
		VALUES (?, ?, ?)
		ON CONFLICT(game_id, profile_id, path) DO NOTHING
	`, gameID, profileID, path)
	if err != nil {
		return fmt.Errorf("tracking external mod: %w", err)
	}
	return nil
}

// UntrackExternalMod forgets an external mod. It reports whether a row was removed.
func (d *DB) UntrackExternalMod(gameID, profileID, path string) (bool, error) {
	res, err := d.Exec(`
		DELETE FROM external_mods
		WHERE game_id = ? AND profile_id = ? AND path = ?
	`, gameID, profileID, path)
	if err != nil {
		return false, fmt.Errorf("untracking external mod: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("untracking external mod: %w", err)
	}
	return n > 0, nil
}

// ExternalMods lists tracked external paths in the order they were added
func (d *DB) ExternalMods(gameID, profileID string) ([]string, error) {
	rows, err := d.Query(`
		SELECT path FROM external_mods
		WHERE game_id = ? AND profile_id = ?
		ORDER BY rowid
	`, gameID, profileID)
	if err != nil {
		return nil, fmt.Errorf("listing external mods: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning external mod: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteProfileExternalMods drops every tracked path of a profile
func (d *DB) DeleteProfileExternalMods(gameID, profileID string) error {
	_, err := d.Exec("DELETE FROM external_mods WHERE game_id = ? AND profile_id = ?", gameID, profileID)
	if err != nil {
		return fmt.Errorf("deleting external mods: %w", err)
	}
	return nil
}
