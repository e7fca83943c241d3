// Presigned upload URLs for plant photos. The object store only needs to
// hand clients a short-lived PUT target and a stable public URL; the
// analysis pipeline itself never touches the bucket.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	appconfig "github.com/tanmald/plant-sis/app/config"
	"github.com/tanmald/plant-sis/auth"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const uploadURLExpiry = 15 * time.Minute

var allowedPhotoExts = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
}

type uploadURLRequest struct {
	PlantID string `json:"plantId,omitempty"`
	FileExt string `json:"fileExt"`
}

// photoStorageKey builds the object key for one uploaded photo. Photos for
// plants that don't exist yet land in the user's temp folder.
func photoStorageKey(userID, plantID, ext string) string {
	folder := plantID
	if folder == "" {
		folder = "temp"
	}
	return fmt.Sprintf("%s/%s/%s.%s", userID, folder, uuid.New(), ext)
}

// CreateUploadURL returns a presigned S3 PUT URL plus the public URL the
// uploaded photo will be served from.
func CreateUploadURL(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	ext := strings.ToLower(strings.TrimPrefix(req.FileExt, "."))
	if !allowedPhotoExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file extension"})
		return
	}

	cfg, err := appconfig.LoadConfig()
	if err != nil {
		log.Printf("LoadConfig failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load config"})
		return
	}
	if cfg.Storage.Bucket == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "photo storage not configured"})
		return
	}

	key := photoStorageKey(claims.Subject, req.PlantID, ext)

	uploadURL, err := presignPhotoPut(c.Request.Context(), cfg, key)
	if err != nil {
		log.Printf("presign failed key=%s err=%v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create upload url"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploadUrl": uploadURL,
		"publicUrl": publicPhotoURL(cfg, key),
		"path":      key,
	})
}

func presignPhotoPut(ctx context.Context, cfg *appconfig.Config, key string) (string, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Storage.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Storage.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return "", err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.BaseEndpoint)
		}
	})

	req, err := s3.NewPresignClient(client).PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(cfg.Storage.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(uploadURLExpiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func publicPhotoURL(cfg *appconfig.Config, key string) string {
	if cfg.Storage.PublicBaseURL != "" {
		return strings.TrimRight(cfg.Storage.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Storage.Bucket, cfg.Storage.Region, key)
}
