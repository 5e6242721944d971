package services

import (
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/elastic/go-elasticsearch/v8"
	"gorm.io/gorm"
)

// FilingService hosts the compliance, escalation, distribution and workflow
// logic over the shared store. The Elasticsearch and S3 clients are optional;
// when unset the service skips flag indexing and attachment archival.
type FilingService struct {
	db       DBInterface
	esClient *elasticsearch.Client
	s3Client *s3.S3
	bucket   string
}

// NewFilingService initializes the service with the database plus the optional
// search and object-storage clients configured through the environment.
func NewFilingService(db *gorm.DB) (*FilingService, error) {
	if db == nil {
		return nil, fmt.Errorf("nil database handle")
	}
	svc := &FilingService{db: NewGormDB(db)}

	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL != "" {
		esClient, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: []string{esURL},
		})
		if err != nil {
			log.Printf("Warning: failed to create Elasticsearch client: %v", err)
		} else {
			svc.esClient = esClient
		}
	}

	region := os.Getenv("S3_REGION")
	endpoint := os.Getenv("S3_ENDPOINT")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")
	svc.bucket = os.Getenv("S3_BUCKET")
	if region != "" && endpoint != "" && accessKey != "" && secretKey != "" && svc.bucket != "" {
		sess, err := session.NewSession(&aws.Config{
			Region:           aws.String(region),
			Endpoint:         aws.String(endpoint),
			Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
			S3ForcePathStyle: aws.Bool(true),
		})
		if err != nil {
			log.Printf("Warning: failed to create S3 session: %v", err)
		} else {
			svc.s3Client = s3.New(sess)
		}
	} else {
		log.Println("S3 configuration incomplete; stage attachments will not be archived")
	}

	return svc, nil
}
