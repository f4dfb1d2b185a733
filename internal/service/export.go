package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/flarelog/backend/config"
	"github.com/flarelog/backend/internal/models"
)

var ErrExportUnavailable = errors.New("report export storage unavailable")

// shareLinkTTL bounds how long a clinician share link stays valid.
const shareLinkTTL = 7 * 24 * time.Hour

// ExportService renders a weekly report plus its entries as a JSON
// document, uploads it to S3 and returns a time-limited presigned URL
// suitable for sending to a clinician.
type ExportService struct {
	s3Config *config.S3Config
}

func NewExportService(s3Config *config.S3Config) *ExportService {
	return &ExportService{s3Config: s3Config}
}

// clinicianExport is the document a share link resolves to. It carries
// no auth tokens and no wearable credentials.
type clinicianExport struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Patient     clinicianPatient     `json:"patient"`
	Report      *models.WeeklyReport `json:"report"`
	Entries     []models.Entry       `json:"entries"`
}

type clinicianPatient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ShareReport uploads the export and returns the presigned link.
func (s *ExportService) ShareReport(ctx context.Context, user *models.User, report *models.WeeklyReport, entries []models.Entry) (string, error) {
	if s.s3Config == nil {
		return "", ErrExportUnavailable
	}

	doc := clinicianExport{
		GeneratedAt: time.Now().UTC(),
		Patient:     clinicianPatient{Name: user.Name, Email: user.Email},
		Report:      report,
		Entries:     entries,
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report export: %w", err)
	}

	key := fmt.Sprintf("reports/%s/%s.json", user.ID, report.WeekStart.Format("2006-01-02"))
	_, err = s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExportUnavailable, err)
	}

	url, err := s.s3Config.GeneratePresignedURL(ctx, key, shareLinkTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign share link: %w", err)
	}
	return url, nil
}
