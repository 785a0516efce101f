// Package sequence produces the next unique document number for a scope and
// date: CN numbers, batch codes and manifest/arrival-scan/delivery-sheet codes.
//
// The generator is deliberately counter-table-free: it counts committed rows
// for the scope, probes the candidate for existence and retries on collision,
// falling back to a timestamp-derived and finally a random serial. Numbers are
// human-sequential in the common case and merely unique under contention.
// The existence probe and the insert that consumes the number must run in the
// same transaction, so every method takes the caller's tx handle.
package sequence

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"courier-booking/apperrors"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

const (
	// Sequential count->probe attempts before falling back.
	maxSequentialAttempts = 5
	// Probes of random serials before giving up entirely.
	maxRandomAttempts = 3

	retryBackoffBase = 15 * time.Millisecond
)

// Scope identifies one numbering namespace: the table/column the number lives
// in plus the fixed prefix shared by all numbers of the scope and date.
type Scope struct {
	Table  string
	Column string
	Prefix string
	// Pad is the zero-padding width of the serial; 0 means unpadded.
	Pad int
}

type Service struct{}

func NewSequenceService() *Service {
	return &Service{}
}

// DatePrefix derives the deterministic YYYYMMDD component for a date.
func DatePrefix(t time.Time) string {
	return now.With(t).BeginningOfDay().Format("20060102")
}

// ForCnNumber scopes CN numbers: bare 10-digit strings YYYYMMDDNN.
func ForCnNumber(date time.Time) Scope {
	return Scope{Table: "bookings", Column: "cn_number", Prefix: DatePrefix(date), Pad: 2}
}

// ForBatchCode scopes batch codes under an owner-specific prefix such as
// "alice-20260831-" or "ST12-DHK-20260831-".
func ForBatchCode(prefix string) Scope {
	return Scope{Table: "batches", Column: "batch_code", Prefix: prefix}
}

func ForManifestCode(date time.Time) Scope {
	return Scope{Table: "manifests", Column: "manifest_code", Prefix: "MF-" + DatePrefix(date) + "-"}
}

func ForArrivalScanCode(date time.Time) Scope {
	return Scope{Table: "arrival_scans", Column: "scan_code", Prefix: "AS-" + DatePrefix(date) + "-"}
}

func ForDeliverySheetCode(date time.Time) Scope {
	return Scope{Table: "delivery_sheets", Column: "sheet_code", Prefix: "DS-" + DatePrefix(date) + "-"}
}

// Generate returns the next free number for the scope. The ladder is:
// count+1 probe (with backoff retries), then a timestamp-derived serial, then
// random serials, each verified by a direct lookup. The count is only a hint;
// the existence probe inside the caller's transaction is what guarantees
// uniqueness against concurrent writers.
func (s *Service) Generate(tx *gorm.DB, scope Scope) (string, error) {
	for attempt := 0; attempt < maxSequentialAttempts; attempt++ {
		var count int64
		if err := tx.Table(scope.Table).
			Where(scope.Column+" LIKE ?", scope.Prefix+"%").
			Count(&count).Error; err != nil {
			return "", err
		}

		candidate := scope.Prefix + s.serial(count+1, scope.Pad)
		taken, err := s.exists(tx, scope, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		time.Sleep(retryBackoffBase * time.Duration(attempt+1))
	}

	// Timestamp rung: a serial derived from the wall clock.
	candidate := scope.Prefix + s.serial(timestampSerial(scope.Pad), scope.Pad)
	taken, err := s.exists(tx, scope, candidate)
	if err != nil {
		return "", err
	}
	if !taken {
		return candidate, nil
	}

	// Random rung: last resort before failing the request.
	for attempt := 0; attempt < maxRandomAttempts; attempt++ {
		candidate = scope.Prefix + s.serial(randomSerial(scope.Pad), scope.Pad)
		taken, err = s.exists(tx, scope, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", apperrors.GenerationExhausted(
		"could not allocate a unique number for prefix %s after exhausting retries", scope.Prefix)
}

func (s *Service) exists(tx *gorm.DB, scope Scope, candidate string) (bool, error) {
	var found int64
	err := tx.Table(scope.Table).
		Where(scope.Column+" = ?", candidate).
		Count(&found).Error
	if err != nil {
		return false, err
	}
	return found > 0, nil
}

func (s *Service) serial(n int64, pad int) string {
	if pad > 0 {
		return fmt.Sprintf("%0*d", pad, n)
	}
	return strconv.FormatInt(n, 10)
}

// serialBound returns the exclusive upper bound for fallback serials so a
// padded serial keeps its width in the common case.
func serialBound(pad int) int64 {
	if pad <= 0 {
		return 100000
	}
	bound := int64(1)
	for i := 0; i < pad; i++ {
		bound *= 10
	}
	return bound
}

func timestampSerial(pad int) int64 {
	n := time.Now().UnixNano() % serialBound(pad)
	if n == 0 {
		n = 1
	}
	return n
}

func randomSerial(pad int) int64 {
	return rand.Int63n(serialBound(pad)-1) + 1
}
