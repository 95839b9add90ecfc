package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NexusLink ties a local artifact to the Nexus Mods page it came from
type NexusLink struct {
	LocalPath  string
	GameDomain string
	ModID      int
	Name       string
	Version    string
	Author     string
	FileName   string
	UpdatedAt  time.Time
}

// URL returns the mod page on nexusmods.com
func (l *NexusLink) URL() string {
	return fmt.Sprintf("https://www.nexusmods.com/%s/mods/%d", l.GameDomain, l.ModID)
}

// SaveNexusLink inserts or replaces the metadata for a local path
func (d *DB) SaveNexusLink(link *NexusLink) error {
	_, err := d.Exec(`
		INSERT INTO nexus_links (local_path, game_domain, mod_id, name, version, author, file_name, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(local_path) DO UPDATE SET
			game_domain = excluded.game_domain,
			mod_id = excluded.mod_id,
			name = excluded.name,
			version = excluded.version,
			author = excluded.author,
			file_name = excluded.file_name,
			updated_at = CURRENT_TIMESTAMP
	`, link.LocalPath, link.GameDomain, link.ModID, link.Name, link.Version, link.Author, link.FileName)
	if err != nil {
		return fmt.Errorf("saving nexus link: %w", err)
	}
	return nil
}

const nexusColumns = `local_path, game_domain, mod_id, COALESCE(name, ''), COALESCE(version, ''),
	COALESCE(author, ''), COALESCE(file_name, ''), updated_at`

// GetNexusLink returns the metadata for a local path, or nil if none is stored
func (d *DB) GetNexusLink(localPath string) (*NexusLink, error) {
	row := d.QueryRow("SELECT "+nexusColumns+" FROM nexus_links WHERE local_path = ?", localPath)
	return scanNexusLink(row)
}

// GetNexusLinkByMod returns the most recently updated link for a Nexus mod id
func (d *DB) GetNexusLinkByMod(gameDomain string, modID int) (*NexusLink, error) {
	row := d.QueryRow("SELECT "+nexusColumns+` FROM nexus_links
		WHERE game_domain = ? AND mod_id = ?
		ORDER BY updated_at DESC, rowid DESC LIMIT 1`, gameDomain, modID)
	return scanNexusLink(row)
}

// ListNexusLinks returns every link for a game domain ordered by path
func (d *DB) ListNexusLinks(gameDomain string) ([]*NexusLink, error) {
	rows, err := d.Query("SELECT "+nexusColumns+" FROM nexus_links WHERE game_domain = ? ORDER BY local_path", gameDomain)
	if err != nil {
		return nil, fmt.Errorf("listing nexus links: %w", err)
	}
	defer rows.Close()

	var links []*NexusLink
	for rows.Next() {
		link, err := scanNexusLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// DeleteNexusLink removes the metadata for a local path
func (d *DB) DeleteNexusLink(localPath string) error {
	if _, err := d.Exec("DELETE FROM nexus_links WHERE local_path = ?", localPath); err != nil {
		return fmt.Errorf("deleting nexus link: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNexusLink(s scanner) (*NexusLink, error) {
	var link NexusLink
	err := s.Scan(&link.LocalPath, &link.GameDomain, &link.ModID, &link.Name,
		&link.Version, &link.Author, &link.FileName, &link.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning nexus link: %w", err)
	}
	return &link, nil
}
