package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"rov_inventory_go/logger"
	"rov_inventory_go/models"
	"rov_inventory_go/services/backend"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxSheetNameLength = 31
	maxColumnWidth     = 80
	noCenterSheetName  = "Sin centro"
)

// ErrNoResults is returned when a range holds no log entries; no file is produced.
var ErrNoResults = &DomainError{Key: "errors.no_results"}

var bitacoraHeaders = []string{"Fecha", "Centro", "Piloto", "Estado puerto", "Observaciones"}

// ExportRequest selects the log entries of every center in a zone between two dates.
type ExportRequest struct {
	CompanyID string
	ZoneID    string
	DateFrom  string
	DateTo    string
}

// Validate checks the selection before any backend call.
func (r ExportRequest) Validate() error {
	if strings.TrimSpace(r.ZoneID) == "" {
		return invalid("validation.zone.required")
	}
	return DateRange{From: r.DateFrom, To: r.DateTo}.Validate()
}

// FileName follows bitacoras_por_centro_<company>_<zone>_<from>_<to>.xlsx.
func (r ExportRequest) FileName() string {
	return fmt.Sprintf("bitacoras_por_centro_%s_%s_%s_%s.xlsx", r.CompanyID, r.ZoneID, r.DateFrom, r.DateTo)
}

// BitacoraRow is one log entry with names resolved.
type BitacoraRow struct {
	Date         string
	Center       string
	Pilot        string
	PortStatus   string
	Observations string
}

func (r BitacoraRow) cells() []string {
	return []string{r.Date, r.Center, r.Pilot, r.PortStatus, r.Observations}
}

type bitacoraRecord struct {
	ID            string  `json:"id"`
	Fecha         string  `json:"fecha"`
	CentroID      string  `json:"centro_id"`
	PilotoID      *string `json:"piloto_id"`
	EstadoPuerto  *string `json:"estado_puerto"`
	Observaciones *string `json:"observaciones"`
}

// FetchBitacoraRows loads every entry of the zone's centers within the inclusive
// range, ordered by date, with center and pilot names resolved.
func FetchBitacoraRows(ctx context.Context, data backend.DataAPI, req ExportRequest) ([]BitacoraRow, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	centers, err := ListCenters(ctx, data, req.ZoneID)
	if err != nil {
		return nil, err
	}
	if len(centers) == 0 {
		return nil, nil
	}
	centerNames := make(map[string]string, len(centers))
	centerIDs := make([]string, 0, len(centers))
	for _, c := range centers {
		centerNames[c.ID] = c.Name
		centerIDs = append(centerIDs, c.ID)
	}

	var records []bitacoraRecord
	q := backend.From("bitacoras").
		Select("id,fecha,centro_id,piloto_id,estado_puerto,observaciones").
		In("centro_id", centerIDs).
		Gte("fecha", req.DateFrom).
		Lte("fecha", req.DateTo).
		Order("fecha", true)
	if _, err := data.Select(ctx, q, &records); err != nil {
		return nil, fmt.Errorf("failed to load bitacoras: %w", err)
	}

	pilots := resolvePilots(ctx, data, records)

	rows := make([]BitacoraRow, 0, len(records))
	for _, rec := range records {
		row := BitacoraRow{
			Date:         rec.Fecha,
			Center:       centerNames[rec.CentroID],
			PortStatus:   deref(rec.EstadoPuerto),
			Observations: SanitizeText(deref(rec.Observaciones)),
		}
		if rec.PilotoID != nil {
			row.Pilot = pilots[*rec.PilotoID]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// resolvePilots maps pilot ids to names. A failed lookup leaves names blank.
func resolvePilots(ctx context.Context, data backend.DataAPI, records []bitacoraRecord) map[string]string {
	seen := map[string]bool{}
	var ids []string
	for _, r := range records {
		if r.PilotoID != nil && *r.PilotoID != "" && !seen[*r.PilotoID] {
			seen[*r.PilotoID] = true
			ids = append(ids, *r.PilotoID)
		}
	}
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names
	}

	var pilots []namedRow
	if _, err := data.Select(ctx, backend.From("pilotos").Select("id,nombre").In("id", ids), &pilots); err != nil {
		logger.Warn("Failed to resolve pilot names", zap.Error(err))
		return names
	}
	for _, p := range pilots {
		names[p.ID] = p.Nombre
	}
	return names
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SanitizeSheetName removes characters spreadsheets reject in tab names and
// truncates to the tab name limit. Empty names become "Sin centro".
func SanitizeSheetName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return -1
		}
		return r
	}, name)
	cleaned = truncateRunes(cleaned, maxSheetNameLength)
	if cleaned == "" {
		return noCenterSheetName
	}
	return cleaned
}

// truncateRunes cuts s to n runes. Tab names may not start or end with an
// apostrophe, so edges are trimmed again after the cut.
func truncateRunes(s string, n int) string {
	s = trimSheetEdges(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return trimSheetEdges(string([]rune(s)[:n]))
}

func trimSheetEdges(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return r == '\'' || unicode.IsSpace(r) })
}

// uniqueSheetName appends " (n)" until name is unused, shortening the base to
// stay within the limit. Comparison is case-insensitive like the format itself.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		base := truncateRunes(name, maxSheetNameLength-utf8.RuneCountInString(suffix))
		candidate = base + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// SheetGroup is the rows written to one tab.
type SheetGroup struct {
	Sheet string
	Rows  []BitacoraRow
}

// GroupByCenter buckets rows by center name into tabs ordered by name. Centers
// without rows never appear.
func GroupByCenter(rows []BitacoraRow) []SheetGroup {
	buckets := map[string][]BitacoraRow{}
	for _, r := range rows {
		key := strings.TrimSpace(r.Center)
		if key == "" {
			key = noCenterSheetName
		}
		buckets[key] = append(buckets[key], r)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	used := map[string]bool{}
	groups := make([]SheetGroup, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, SheetGroup{
			Sheet: uniqueSheetName(SanitizeSheetName(k), used),
			Rows:  buckets[k],
		})
	}
	return groups
}

// BuildWorkbook writes one tab per group with a bold header and columns sized
// to their longest cell.
func BuildWorkbook(groups []SheetGroup) (*bytes.Buffer, error) {
	if len(groups) == 0 {
		return nil, ErrNoResults
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, g := range groups {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", g.Sheet); err != nil {
				return nil, fmt.Errorf("failed to name sheet %q: %w", g.Sheet, err)
			}
		} else if _, err := f.NewSheet(g.Sheet); err != nil {
			return nil, fmt.Errorf("failed to add sheet %q: %w", g.Sheet, err)
		}

		widths := make([]int, len(bitacoraHeaders))
		for col, h := range bitacoraHeaders {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(g.Sheet, cell, h)
			widths[col] = utf8.RuneCountInString(h)
		}
		for r, row := range g.Rows {
			for col, v := range row.cells() {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				f.SetCellValue(g.Sheet, cell, v)
				if n := utf8.RuneCountInString(v); n > widths[col] {
					widths[col] = n
				}
			}
		}

		last, _ := excelize.ColumnNumberToName(len(bitacoraHeaders))
		f.SetCellStyle(g.Sheet, "A1", last+"1", headerStyle)
		for col, w := range widths {
			name, _ := excelize.ColumnNumberToName(col + 1)
			f.SetColWidth(g.Sheet, name, name, columnWidth(w))
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}

func columnWidth(longest int) float64 {
	w := longest + 2
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	return float64(w)
}

// BitacoraExport is a generated workbook ready to download or archive.
type BitacoraExport struct {
	FileName string
	Content  []byte
	Sheets   int
	Rows     int
}

// ExportBitacoraRange builds the per-center workbook for req. An empty range
// yields ErrNoResults.
func ExportBitacoraRange(ctx context.Context, data backend.DataAPI, req ExportRequest) (*BitacoraExport, error) {
	rows, err := FetchBitacoraRows(ctx, data, req)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoResults
	}

	groups := GroupByCenter(rows)
	buf, err := BuildWorkbook(groups)
	if err != nil {
		return nil, err
	}
	return &BitacoraExport{
		FileName: req.FileName(),
		Content:  buf.Bytes(),
		Sheets:   len(groups),
		Rows:     len(rows),
	}, nil
}

// ArchiveExport stores the workbook and records who generated it.
func ArchiveExport(ctx context.Context, db *gorm.DB, store StorageProvider, exp *BitacoraExport, req ExportRequest, userID, userEmail string) (*models.ExportRecord, error) {
	if store == nil || !store.IsConfigured() {
		return nil, errors.New("storage not configured")
	}

	record := &models.ExportRecord{
		UserID:     userID,
		UserEmail:  userEmail,
		CompanyID:  req.CompanyID,
		ZoneID:     req.ZoneID,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		FileName:   exp.FileName,
		SheetCount: exp.Sheets,
		RowCount:   exp.Rows,
	}
	if err := record.BeforeCreate(nil); err != nil {
		return nil, err
	}
	record.StorageKey = ExportKey(record.ID, exp.FileName, time.Now())

	result, err := store.Put(ctx, bytes.NewReader(exp.Content), record.StorageKey, XLSXContentType, int64(len(exp.Content)))
	if err != nil {
		return nil, fmt.Errorf("failed to archive export: %w", err)
	}
	record.FileSize = result.FileSize

	if err := db.WithContext(ctx).Create(record).Error; err != nil {
		if delErr := store.Delete(ctx, record.StorageKey); delErr != nil {
			logger.Warn("Failed to remove orphaned export", zap.String("key", record.StorageKey), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to record export: %w", err)
	}
	return record, nil
}

// ListExports returns the most recent archived exports first.
func ListExports(db *gorm.DB, limit int) ([]models.ExportRecord, error) {
	var records []models.ExportRecord
	q := db.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	return records, nil
}

// OpenExport returns an archived export's record and content.
func OpenExport(ctx context.Context, db *gorm.DB, store StorageProvider, id string) (*models.ExportRecord, io.ReadCloser, error) {
	var record models.ExportRecord
	if err := db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &DomainError{Key: "errors.export_not_found"}
		}
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, errors.New("storage not configured")
	}
	reader, _, err := store.Get(ctx, record.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return &record, reader, nil
}

// PruneExports deletes exports created more than retentionDays before now,
// removing stored files first. Returns how many records were deleted.
func PruneExports(ctx context.Context, db *gorm.DB, store StorageProvider, retentionDays int, now time.Time) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	var expired []models.ExportRecord
	if err := db.WithContext(ctx).Where("created_at < ?", cutoff).Find(&expired).Error; err != nil {
		return 0, fmt.Errorf("failed to find expired exports: %w", err)
	}

	deleted := 0
	for _, rec := range expired {
		if store != nil {
			if err := store.Delete(ctx, rec.StorageKey); err != nil {
				logger.Warn("Failed to delete export file", zap.String("key", rec.StorageKey), zap.Error(err))
				continue
			}
		}
		if err := db.WithContext(ctx).Delete(&models.ExportRecord{}, "id = ?", rec.ID).Error; err != nil {
			return deleted, fmt.Errorf("failed to delete export record: %w", err)
		}
		deleted++
	}
	return deleted, nil
}
