package repository

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/teamforge/internal/domain/dedupe"
	"github.com/okian/teamforge/internal/domain/model"
	"github.com/okian/teamforge/pkg/logger"
	"github.com/okian/teamforge/pkg/metrics"
)

const (
	utf8BOM          = "\ufeff"
	outputPermission = 0o644
)

// Column sets of the workshop files.
var (
	rosterColumns   = []string{"UserNumber", "RealFullName", "RealAlias", "RealEmail", "Team", "Country"}
	surveyColumns   = []string{"Email", "ChallengeLevel"}
	proctorColumns  = []string{"RealEmail"}
	poolColumns     = []string{"FirstName", "LastName", "FullName", "Gender", "Language"}
	teamColumns     = []string{"TeamNumber", "TeamType", "UserNumber", "RealFullName", "RealAlias", "RealEmail", "OriginalTeam", "Country", "ChallengePreference"}
	teamReadColumns = []string{"TeamNumber", "TeamType", "RealEmail", "ChallengePreference"}
	mappingColumns  = []string{
		"UserNumber", "RealFullName", "RealAlias", "RealEmail", "Team", "Country",
		"Role", "ChallengeLevel", "FictitiousFirstName", "FictitiousLastName",
		"FictitiousFullName", "FictitiousGender", "FictitiousLanguage",
		"NativeUserPrincipalName", "DisplayName", "Alias",
	}
)

// CSVStore implements Store over CSV files on the local filesystem.
type CSVStore struct {
	duplicates DuplicatePolicy
	logger     logger.Logger
}

// NewCSVStore creates a store with configuration options.
func NewCSVStore(opts ...Option) *CSVStore {
	s := &CSVStore{
		duplicates: DuplicateError,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*CSVStore)(nil)

// LoadRoster reads participant-assignments rows. Rows without an email are
// skipped; the Role column is optional.
func (s *CSVStore) LoadRoster(ctx context.Context, path string) ([]model.Participant, error) {
	t, err := readTable(path, rosterColumns)
	if err != nil {
		return nil, err
	}

	seen := dedupe.NewInMemoryDeduper(dedupe.WithNormalizer(model.NormalizeID), dedupe.WithCapacityHint(len(t.rows)))
	participants := make([]model.Participant, 0, len(t.rows))
	for i, row := range t.rows {
		email := t.get(row, "RealEmail")
		id := model.NormalizeID(email)
		if id == "" {
			s.logger.Warn(ctx, "roster row without email skipped", logger.String("file", path), logger.Int("row", i+2))
			continue
		}
		if seen.SeenAndRecord(ctx, id) {
			if err := s.duplicate(ctx, "roster", path, id, i+2); err != nil {
				return nil, err
			}
			continue
		}
		participants = append(participants, model.Participant{
			ID:           id,
			UserNumber:   t.get(row, "UserNumber"),
			Name:         t.get(row, "RealFullName"),
			Alias:        t.get(row, "RealAlias"),
			Email:        email,
			OriginalTeam: t.get(row, "Team"),
			Country:      t.get(row, "Country"),
			Role:         model.ParseRole(t.get(row, "Role")),
		})
	}

	s.duplicateSummary(ctx, "roster", path, seen)
	metrics.RecordRowsRead("roster", len(participants))
	s.logger.Debug(ctx, "roster loaded", logger.String("file", path), logger.Int("participants", len(participants)))
	return participants, nil
}

// LoadPreferences reads survey answers. Unknown levels count as no
// preference and are logged.
func (s *CSVStore) LoadPreferences(ctx context.Context, path string) (map[string]model.Preference, error) {
	t, err := readTable(path, surveyColumns)
	if err != nil {
		return nil, err
	}

	seen := dedupe.NewInMemoryDeduper(dedupe.WithNormalizer(model.NormalizeID))
	prefs := make(map[string]model.Preference, len(t.rows))
	for i, row := range t.rows {
		id := model.NormalizeID(t.get(row, "Email"))
		if id == "" {
			continue
		}
		if seen.SeenAndRecord(ctx, id) {
			if err := s.duplicate(ctx, "survey", path, id, i+2); err != nil {
				return nil, err
			}
			continue
		}
		level := t.get(row, "ChallengeLevel")
		pref, ok := model.ParsePreference(level)
		if !ok {
			s.logger.Warn(ctx, "unknown challenge level treated as no preference",
				logger.String("email", id), logger.String("level", level))
		}
		prefs[id] = pref
	}

	s.duplicateSummary(ctx, "survey", path, seen)
	metrics.RecordRowsRead("survey", len(prefs))
	return prefs, nil
}

// LoadProctors reads the proctor list. An empty path yields no proctors; a
// configured path that does not exist is ErrMissingInput.
func (s *CSVStore) LoadProctors(ctx context.Context, path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	t, err := readTable(path, proctorColumns)
	if err != nil {
		return nil, err
	}

	seen := dedupe.NewInMemoryDeduper(dedupe.WithNormalizer(model.NormalizeID))
	var ids []string
	for i, row := range t.rows {
		id := model.NormalizeID(t.get(row, "RealEmail"))
		if id == "" {
			continue
		}
		if seen.SeenAndRecord(ctx, id) {
			if err := s.duplicate(ctx, "proctors", path, id, i+2); err != nil {
				return nil, err
			}
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	s.duplicateSummary(ctx, "proctors", path, seen)

	metrics.RecordRowsRead("proctors", len(ids))
	return ids, nil
}

// WriteRoster writes participant-assignments rows including the Role column.
func (s *CSVStore) WriteRoster(ctx context.Context, path string, roster []model.Participant) error {
	rows := make([][]string, 0, len(roster))
	for _, p := range roster {
		rows = append(rows, []string{p.UserNumber, p.Name, p.Alias, p.Email, p.OriginalTeam, p.Country, string(p.Role)})
	}
	header := append(append([]string{}, rosterColumns...), "Role")
	if err := writeTable(path, header, rows); err != nil {
		return err
	}
	metrics.RecordRowsWritten("roster", len(rows))
	s.logger.Debug(ctx, "roster written", logger.String("file", path), logger.Int("rows", len(rows)))
	return nil
}

// WritePreferences writes survey answers sorted by id.
func (s *CSVStore) WritePreferences(ctx context.Context, path string, prefs map[string]model.Preference) error {
	ids := make([]string, 0, len(prefs))
	for id := range prefs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{id, prefs[id].String()})
	}
	if err := writeTable(path, surveyColumns, rows); err != nil {
		return err
	}
	metrics.RecordRowsWritten("survey", len(rows))
	s.logger.Debug(ctx, "survey written", logger.String("file", path), logger.Int("rows", len(rows)))
	return nil
}

// WriteProctors writes the proctor list in the given order.
func (s *CSVStore) WriteProctors(ctx context.Context, path string, ids []string) error {
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{id})
	}
	if err := writeTable(path, proctorColumns, rows); err != nil {
		return err
	}
	metrics.RecordRowsWritten("proctors", len(rows))
	s.logger.Debug(ctx, "proctors written", logger.String("file", path), logger.Int("rows", len(rows)))
	return nil
}

// LoadNamePool reads pseudonym pool files in order. Files that do not exist
// are skipped with a warning.
func (s *CSVStore) LoadNamePool(ctx context.Context, paths []string) ([]model.Pseudonym, error) {
	var names []model.Pseudonym
	for _, path := range paths {
		t, err := readTable(path, poolColumns)
		if errors.Is(err, ErrMissingInput) {
			s.logger.Warn(ctx, "name pool file not found, skipping", logger.String("file", path))
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, row := range t.rows {
			names = append(names, model.Pseudonym{
				FirstName: t.get(row, "FirstName"),
				LastName:  t.get(row, "LastName"),
				FullName:  t.get(row, "FullName"),
				Gender:    t.get(row, "Gender"),
				Language:  t.get(row, "Language"),
			})
		}
	}

	metrics.RecordRowsRead("name_pool", len(names))
	return names, nil
}

// WriteAssignment writes one row per member, teams in order. Empty teams
// produce no rows.
func (s *CSVStore) WriteAssignment(ctx context.Context, path string, asg model.Assignment) error {
	rows := make([][]string, 0, asg.TotalMembers())
	for _, team := range asg.Teams {
		for _, m := range team.Members {
			p := m.Participant
			rows = append(rows, []string{
				strconv.Itoa(team.Number),
				team.Kind.String(),
				p.UserNumber,
				p.Name,
				p.Alias,
				p.ID,
				p.OriginalTeam,
				p.Country,
				m.Preference.String(),
			})
		}
	}
	if err := writeTable(path, teamColumns, rows); err != nil {
		return err
	}

	metrics.RecordRowsWritten("teams", len(rows))
	s.logger.Debug(ctx, "assignment written", logger.String("file", path), logger.Int("rows", len(rows)))
	return nil
}

// LoadTeams reads a teams export back.
func (s *CSVStore) LoadTeams(ctx context.Context, path string) ([]model.TeamRecord, error) {
	t, err := readTable(path, teamReadColumns)
	if err != nil {
		return nil, err
	}

	seen := dedupe.NewInMemoryDeduper(dedupe.WithNormalizer(model.NormalizeID))
	records := make([]model.TeamRecord, 0, len(t.rows))
	for i, row := range t.rows {
		email := model.NormalizeID(t.get(row, "RealEmail"))
		if email == "" {
			continue
		}
		if seen.SeenAndRecord(ctx, email) {
			if err := s.duplicate(ctx, "teams", path, email, i+2); err != nil {
				return nil, err
			}
			continue
		}
		records = append(records, model.TeamRecord{
			TeamNumber: t.get(row, "TeamNumber"),
			TeamType:   t.get(row, "TeamType"),
			Email:      email,
			Preference: t.get(row, "ChallengePreference"),
		})
	}

	s.duplicateSummary(ctx, "teams", path, seen)
	metrics.RecordRowsRead("teams", len(records))
	return records, nil
}

// LoadMapping reads the workshop user mapping, keeping row order.
func (s *CSVStore) LoadMapping(ctx context.Context, path string) ([]model.MappingUser, error) {
	t, err := readTable(path, []string{"UserNumber", "RealEmail"})
	if err != nil {
		return nil, err
	}

	seen := dedupe.NewInMemoryDeduper(dedupe.WithNormalizer(model.NormalizeID))
	users := make([]model.MappingUser, 0, len(t.rows))
	for i, row := range t.rows {
		u := model.MappingUser{
			UserNumber:     t.get(row, "UserNumber"),
			RealFullName:   t.get(row, "RealFullName"),
			RealAlias:      t.get(row, "RealAlias"),
			RealEmail:      t.get(row, "RealEmail"),
			Team:           t.get(row, "Team"),
			Country:        t.get(row, "Country"),
			Role:           t.get(row, "Role"),
			ChallengeLevel: t.get(row, "ChallengeLevel"),
			Fictitious: model.Pseudonym{
				FirstName: t.get(row, "FictitiousFirstName"),
				LastName:  t.get(row, "FictitiousLastName"),
				FullName:  t.get(row, "FictitiousFullName"),
				Gender:    t.get(row, "FictitiousGender"),
				Language:  t.get(row, "FictitiousLanguage"),
			},
			PrincipalName: t.get(row, "NativeUserPrincipalName"),
			DisplayName:   t.get(row, "DisplayName"),
			Alias:         t.get(row, "Alias"),
		}
		if id := u.ID(); id != "" && seen.SeenAndRecord(ctx, id) {
			if err := s.duplicate(ctx, "mapping", path, id, i+2); err != nil {
				return nil, err
			}
			continue
		}
		users = append(users, u)
	}

	s.duplicateSummary(ctx, "mapping", path, seen)
	metrics.RecordRowsRead("mapping", len(users))
	return users, nil
}

// WriteMapping writes the user mapping with every field quoted.
func (s *CSVStore) WriteMapping(ctx context.Context, path string, users []model.MappingUser) error {
	err := writeAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		if err := writeQuoted(bw, mappingColumns); err != nil {
			return err
		}
		for _, u := range users {
			if err := writeQuoted(bw, []string{
				u.UserNumber, u.RealFullName, u.RealAlias, u.RealEmail, u.Team, u.Country,
				u.Role, u.ChallengeLevel, u.Fictitious.FirstName, u.Fictitious.LastName,
				u.Fictitious.FullName, u.Fictitious.Gender, u.Fictitious.Language,
				u.PrincipalName, u.DisplayName, u.Alias,
			}); err != nil {
				return err
			}
		}
		return bw.Flush()
	})
	if err != nil {
		return err
	}

	metrics.RecordRowsWritten("mapping", len(users))
	s.logger.Debug(ctx, "mapping written", logger.String("file", path), logger.Int("rows", len(users)))
	return nil
}

func (s *CSVStore) duplicate(ctx context.Context, source, path, id string, row int) error {
	metrics.RecordDuplicateIdentity(source)
	if s.duplicates == DuplicateError {
		return fmt.Errorf("%w: %s appears more than once in %s (row %d)", ErrDuplicateIdentity, id, path, row)
	}
	s.logger.Warn(ctx, "duplicate identity ignored, first row kept",
		logger.String("input", source),
		logger.String("file", path),
		logger.String("id", id),
		logger.Int("row", row),
	)
	return nil
}

// duplicateSummary logs every repeated id of a source once loading is done.
func (s *CSVStore) duplicateSummary(ctx context.Context, source, path string, seen dedupe.Deduper) {
	dups := seen.Duplicates()
	if len(dups) == 0 {
		return
	}
	s.logger.Warn(ctx, "source contained duplicate identities",
		logger.String("input", source),
		logger.String("file", path),
		logger.Strings("ids", dups),
		logger.Int64("unique", seen.Size()),
	)
}

// table is a parsed CSV file addressed by header name.
type table struct {
	index map[string]int
	rows  [][]string
}

func (t *table) get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readTable(path string, required []string) (*table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no header", ErrMalformedRecord, path)
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	t := &table{index: make(map[string]int, len(header)), rows: records[1:]}
	for i, col := range header {
		t.index[strings.TrimSpace(col)] = i
	}
	for _, col := range required {
		if _, ok := t.index[col]; !ok {
			return nil, fmt.Errorf("%w: %s is missing column %q", ErrMalformedRecord, path, col)
		}
	}
	return t, nil
}

// writeAtomic writes through a temp file in the target directory and renames
// it into place, so a failed write never leaves a partial file behind.
func writeAtomic(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	if err := tmp.Chmod(outputPermission); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	return nil
}

// writeTable writes a header and rows with CRLF line endings, quoting only
// where needed.
func writeTable(path string, header []string, rows [][]string) error {
	return writeAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		cw.UseCRLF = true
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return cw.Error()
	})
}

// writeQuoted writes one CRLF-terminated record with every field quoted.
// encoding/csv only quotes fields that need it.
func writeQuoted(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}
