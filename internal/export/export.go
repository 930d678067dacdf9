// Package export writes a dated snapshot of every school record to S3 as a
// JSON array and a flat Parquet file.
package export

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	"flightmatch/internal/logging"
	"flightmatch/internal/schools"
)

// SchoolRow is one flattened school in the Parquet snapshot.
type SchoolRow struct {
	SchoolID        string  `parquet:"name=school_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Name            string  `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	City            string  `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	State           string  `parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TrainingType    string  `parquet:"name=training_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TrustTier       string  `parquet:"name=trust_tier, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	CostMin         float64 `parquet:"name=cost_min, type=DOUBLE"`
	CostMax         float64 `parquet:"name=cost_max, type=DOUBLE"`
	InstructorCount int64   `parquet:"name=instructor_count, type=INT64"`
	FleetSize       int64   `parquet:"name=fleet_size, type=INT64"`
	AvgRating       float64 `parquet:"name=avg_rating, type=DOUBLE"`
	ReviewCount     int64   `parquet:"name=review_count, type=INT64"`
}

func toRow(s schools.School) SchoolRow {
	var instructors int64
	if s.InstructorCount != nil {
		instructors = int64(*s.InstructorCount)
	}
	return SchoolRow{
		SchoolID:        s.SchoolID,
		Name:            s.Name,
		City:            s.City,
		State:           s.State,
		TrainingType:    s.TrainingType,
		TrustTier:       s.TrustTier,
		CostMin:         s.MinCost(),
		CostMax:         s.MaxCost(),
		InstructorCount: instructors,
		FleetSize:       int64(s.FleetSize),
		AvgRating:       s.AvgRating,
		ReviewCount:     int64(s.ReviewCount),
	}
}

type Lister interface {
	ListAll(ctx context.Context) ([]schools.School, error)
}

type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Result is returned to the scheduler and logged.
type Result struct {
	OK         bool   `json:"ok"`
	Count      int    `json:"count"`
	Bucket     string `json:"bucket"`
	JSONKey    string `json:"jsonKey"`
	ParquetKey string `json:"parquetKey"`
}

type Exporter struct {
	source Lister
	s3     ObjectPutter
	bucket string
	prefix string
	sink   *slog.Logger
	now    func() time.Time
}

func NewExporter(source Lister, s3 ObjectPutter, bucket, prefix string, sink *slog.Logger) *Exporter {
	return &Exporter{
		source: source,
		s3:     s3,
		bucket: bucket,
		prefix: ensureTrailingSlash(prefix),
		sink:   sink,
		now:    time.Now,
	}
}

// Handle is triggered by an EventBridge schedule.
func (e *Exporter) Handle(ctx context.Context, _ events.CloudWatchEvent) (Result, error) {
	log := logging.New(ctx, e.sink)
	res, err := e.Run(ctx)
	if err != nil {
		log.Error("Schools export failed", err, logging.Fields{"bucket": e.bucket})
		return Result{}, err
	}
	log.Info("Schools export completed", logging.Fields{
		"count":      res.Count,
		"bucket":     res.Bucket,
		"jsonKey":    res.JSONKey,
		"parquetKey": res.ParquetKey,
	})
	return res, nil
}

func (e *Exporter) Run(ctx context.Context) (Result, error) {
	all, err := e.source.ListAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list schools: %w", err)
	}

	dir := fmt.Sprintf("%sdt=%s/", e.prefix, e.now().UTC().Format("2006-01-02"))
	jsonKey := dir + "schools.json"
	parquetKey := dir + "schools.parquet"

	if all == nil {
		all = []schools.School{}
	}
	doc, err := json.Marshal(all)
	if err != nil {
		return Result{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := e.put(ctx, jsonKey, "application/json", doc); err != nil {
		return Result{}, err
	}

	rows := make([]SchoolRow, 0, len(all))
	for _, s := range all {
		rows = append(rows, toRow(s))
	}
	data, err := encodeParquet(rows)
	if err != nil {
		return Result{}, err
	}
	if err := e.put(ctx, parquetKey, "application/octet-stream", data); err != nil {
		return Result{}, err
	}

	return Result{OK: true, Count: len(all), Bucket: e.bucket, JSONKey: jsonKey, ParquetKey: parquetKey}, nil
}

func (e *Exporter) put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := e.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("s3 putobject %s: %w", key, err)
	}
	return nil
}

// encodeParquet writes rows through a temp file since the writer needs a
// seekable target.
func encodeParquet(rows []SchoolRow) ([]byte, error) {
	localPath := filepath.Join(os.TempDir(), "schools_"+randHex(8)+".parquet")
	defer func() { _ = os.Remove(localPath) }()

	fw, err := local.NewLocalFileWriter(localPath)
	if err != nil {
		return nil, fmt.Errorf("parquet file writer: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(SchoolRow), 1)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("parquet writer: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.PageSize = 8 * 1024
	pw.CompressionType = 0 // uncompressed

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return nil, fmt.Errorf("parquet write row %s: %w", rows[i].SchoolID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("parquet write stop: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("parquet close: %w", err)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("read parquet tmp: %w", err)
	}
	return data, nil
}

func ensureTrailingSlash(s string) string {
	if s == "" || strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

func randHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
