// Package deploy publishes the workshop stack: assets to the asset bucket,
// the template to CloudFormation, and the site contents to the site bucket
// behind CloudFront. Destroy empties the site bucket and deletes the stack.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cloudfronttypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	workshop "github.com/dineshpithiya/cdk-workshop"
	"github.com/dineshpithiya/cdk-workshop/internal/asset"
	"github.com/dineshpithiya/cdk-workshop/internal/stack"
	"github.com/dineshpithiya/cdk-workshop/internal/template"
)

// DefaultMaxWait bounds how long a stack operation is waited on.
const DefaultMaxWait = 30 * time.Minute

// maxTemplateBody is the largest template CloudFormation accepts inline.
const maxTemplateBody = 51200

// deleteBatch is the most keys one DeleteObjects call accepts.
const deleteBatch = 1000

// InvalidationPath is invalidated after every site upload.
const InvalidationPath = "/*"

// ErrStackNotFound is returned when the stack does not exist.
var ErrStackNotFound = errors.New("stack does not exist")

// Request describes one deployment.
type Request struct {
	StackName   string
	Region      string
	AssetBucket string
	Template    *workshop.Template
	Assets      map[string]asset.Asset
	// SiteDir is uploaded to the site bucket when set.
	SiteDir string
}

// Result is the outcome of a deployment.
type Result struct {
	StackName      string            `json:"stack_name"`
	Created        bool              `json:"created"`
	Updated        bool              `json:"updated"`
	Outputs        map[string]string `json:"outputs"`
	AssetsUploaded int               `json:"assets_uploaded"`
	SiteFiles      int               `json:"site_files"`
	InvalidationID string            `json:"invalidation_id,omitempty"`
}

// Deployer runs deployments against a set of AWS clients.
type Deployer struct {
	clients Clients
	log     zerolog.Logger
	maxWait time.Duration
	newID   func() string
}

// New creates a deployer.
func New(clients Clients, log zerolog.Logger) *Deployer {
	return &Deployer{
		clients: clients,
		log:     log,
		maxWait: DefaultMaxWait,
		newID:   func() string { return uuid.NewString() },
	}
}

// Deploy publishes the assets, creates or updates the stack and, once it
// is stable, uploads the site contents and invalidates the distribution.
func (d *Deployer) Deploy(ctx context.Context, req Request) (*Result, error) {
	result := &Result{StackName: req.StackName}

	uploaded, err := d.uploadAssets(ctx, req.AssetBucket, req.Assets)
	if err != nil {
		return nil, err
	}
	result.AssetsUploaded = uploaded

	body, err := template.ToJSON(req.Template)
	if err != nil {
		return nil, fmt.Errorf("encoding template: %w", err)
	}

	var templateBody, templateURL *string
	if len(body) > maxTemplateBody {
		url, err := d.uploadTemplate(ctx, req, body)
		if err != nil {
			return nil, err
		}
		templateURL = aws.String(url)
	} else {
		templateBody = aws.String(string(body))
	}

	existing, err := d.describe(ctx, req.StackName)
	if err == nil && existing.StackStatus == cftypes.StackStatusRollbackComplete {
		// A failed first create leaves a stack that can only be deleted.
		d.log.Warn().Str("stack", req.StackName).Msg("stack is in ROLLBACK_COMPLETE, recreating")
		if err := d.deleteStack(ctx, req.StackName); err != nil {
			return nil, err
		}
		err = fmt.Errorf("%s: %w", req.StackName, ErrStackNotFound)
	}
	switch {
	case errors.Is(err, ErrStackNotFound):
		if err := d.create(ctx, req.StackName, templateBody, templateURL); err != nil {
			return nil, err
		}
		result.Created = true
	case err != nil:
		return nil, err
	default:
		updated, err := d.update(ctx, req.StackName, templateBody, templateURL)
		if err != nil {
			return nil, err
		}
		result.Updated = updated
	}

	st, err := d.describe(ctx, req.StackName)
	if err != nil {
		return nil, err
	}
	result.Outputs = outputs(st)

	if req.SiteDir != "" {
		bucket := result.Outputs[stack.OutputBucket]
		if bucket == "" {
			return nil, fmt.Errorf("stack %s has no %s output", req.StackName, stack.OutputBucket)
		}
		n, err := d.uploadSite(ctx, bucket, req.SiteDir)
		if err != nil {
			return nil, err
		}
		result.SiteFiles = n

		if distribution := result.Outputs[stack.OutputDistributionID]; distribution != "" {
			id, err := d.invalidate(ctx, distribution)
			if err != nil {
				return nil, err
			}
			result.InvalidationID = id
		}
	}

	return result, nil
}

// Destroy empties the site bucket when it carries the auto-delete tag and
// deletes the stack. A stack that does not exist is not an error.
func (d *Deployer) Destroy(ctx context.Context, stackName string) error {
	st, err := d.describe(ctx, stackName)
	if errors.Is(err, ErrStackNotFound) {
		d.log.Info().Str("stack", stackName).Msg("stack does not exist")
		return nil
	}
	if err != nil {
		return err
	}

	if bucket := outputs(st)[stack.OutputBucket]; bucket != "" {
		tagged, err := d.autoDeletes(ctx, bucket)
		if err != nil {
			return err
		}
		if tagged {
			n, err := d.emptyBucket(ctx, bucket)
			if err != nil {
				return err
			}
			d.log.Info().Str("bucket", bucket).Int("objects", n).Msg("emptied bucket")
		} else {
			d.log.Warn().Str("bucket", bucket).Str("tag", stack.AutoDeleteTag).Msg("bucket is not tagged for auto-delete, leaving objects")
		}
	}

	return d.deleteStack(ctx, stackName)
}

// autoDeletes reports whether bucket carries stack.AutoDeleteTag set to
// "true". A bucket without tags, or one that is already gone, does not.
func (d *Deployer) autoDeletes(ctx context.Context, bucket string) (bool, error) {
	out, err := d.clients.S3.GetBucketTagging(ctx, &s3.GetBucketTaggingInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchTagSet") || strings.Contains(err.Error(), "NoSuchBucket") {
			return false, nil
		}
		return false, fmt.Errorf("reading tags of bucket %s: %w", bucket, err)
	}
	for _, tag := range out.TagSet {
		if aws.ToString(tag.Key) == stack.AutoDeleteTag {
			return aws.ToString(tag.Value) == "true", nil
		}
	}
	return false, nil
}

func (d *Deployer) deleteStack(ctx context.Context, stackName string) error {
	if _, err := d.clients.CloudFormation.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName: aws.String(stackName),
	}); err != nil {
		return fmt.Errorf("deleting stack %s: %w", stackName, err)
	}

	d.log.Info().Str("stack", stackName).Msg("waiting for stack deletion")
	waiter := cloudformation.NewStackDeleteCompleteWaiter(d.clients.CloudFormation)
	if err := waiter.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(stackName)}, d.maxWait); err != nil {
		return fmt.Errorf("waiting for stack %s deletion: %w", stackName, err)
	}
	return nil
}

func (d *Deployer) describe(ctx context.Context, stackName string) (*cftypes.Stack, error) {
	out, err := d.clients.CloudFormation.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return nil, fmt.Errorf("%s: %w", stackName, ErrStackNotFound)
		}
		return nil, fmt.Errorf("describing stack %s: %w", stackName, err)
	}
	if len(out.Stacks) == 0 || out.Stacks[0].StackStatus == cftypes.StackStatusDeleteComplete {
		return nil, fmt.Errorf("%s: %w", stackName, ErrStackNotFound)
	}
	return &out.Stacks[0], nil
}

func (d *Deployer) create(ctx context.Context, stackName string, body, url *string) error {
	d.log.Info().Str("stack", stackName).Msg("creating stack")
	if _, err := d.clients.CloudFormation.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(stackName),
		TemplateBody: body,
		TemplateURL:  url,
		Capabilities: []cftypes.Capability{cftypes.CapabilityCapabilityIam},
	}); err != nil {
		return fmt.Errorf("creating stack %s: %w", stackName, err)
	}

	waiter := cloudformation.NewStackCreateCompleteWaiter(d.clients.CloudFormation)
	if err := waiter.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(stackName)}, d.maxWait); err != nil {
		return fmt.Errorf("waiting for stack %s creation: %w", stackName, err)
	}
	return nil
}

// update reports false when CloudFormation found nothing to change.
func (d *Deployer) update(ctx context.Context, stackName string, body, url *string) (bool, error) {
	d.log.Info().Str("stack", stackName).Msg("updating stack")
	_, err := d.clients.CloudFormation.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(stackName),
		TemplateBody: body,
		TemplateURL:  url,
		Capabilities: []cftypes.Capability{cftypes.CapabilityCapabilityIam},
	})
	if err != nil {
		if strings.Contains(err.Error(), "No updates are to be performed") {
			d.log.Info().Str("stack", stackName).Msg("stack is up to date")
			return false, nil
		}
		return false, fmt.Errorf("updating stack %s: %w", stackName, err)
	}

	waiter := cloudformation.NewStackUpdateCompleteWaiter(d.clients.CloudFormation)
	if err := waiter.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(stackName)}, d.maxWait); err != nil {
		return false, fmt.Errorf("waiting for stack %s update: %w", stackName, err)
	}
	return true, nil
}

func (d *Deployer) uploadAssets(ctx context.Context, bucket string, assets map[string]asset.Asset) (int, error) {
	ids := make([]string, 0, len(assets))
	for id := range assets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	uploaded := 0
	for _, id := range ids {
		a := assets[id]
		_, err := d.clients.S3.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(a.ObjectKey),
		})
		if err == nil {
			d.log.Debug().Str("asset", id).Str("key", a.ObjectKey).Msg("asset already published")
			continue
		}

		if err := d.putFile(ctx, bucket, a.ObjectKey, a.ZipPath, "application/zip"); err != nil {
			return uploaded, fmt.Errorf("publishing asset %s: %w", id, err)
		}
		d.log.Info().Str("asset", id).Str("key", a.ObjectKey).Msg("published asset")
		uploaded++
	}
	return uploaded, nil
}

func (d *Deployer) uploadTemplate(ctx context.Context, req Request, body []byte) (string, error) {
	key := req.StackName + "-" + d.newID() + ".template.json"
	if _, err := d.clients.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(req.AssetBucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(string(body)),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return "", fmt.Errorf("uploading template: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", req.AssetBucket, req.Region, key), nil
}

func (d *Deployer) uploadSite(ctx context.Context, bucket, dir string) (int, error) {
	files, err := asset.Files(dir)
	if err != nil {
		return 0, err
	}
	for _, f := range files {
		if err := d.putFile(ctx, bucket, f.Key, f.Path, f.ContentType); err != nil {
			return 0, fmt.Errorf("uploading %s: %w", f.Key, err)
		}
	}
	d.log.Info().Str("bucket", bucket).Int("files", len(files)).Msg("uploaded site contents")
	return len(files), nil
}

func (d *Deployer) putFile(ctx context.Context, bucket, key, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = d.clients.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	return err
}

func (d *Deployer) invalidate(ctx context.Context, distributionID string) (string, error) {
	out, err := d.clients.CloudFront.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(distributionID),
		InvalidationBatch: &cloudfronttypes.InvalidationBatch{
			CallerReference: aws.String(d.newID()),
			Paths: &cloudfronttypes.Paths{
				Quantity: aws.Int32(1),
				Items:    []string{InvalidationPath},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("invalidating distribution %s: %w", distributionID, err)
	}

	id := ""
	if out.Invalidation != nil {
		id = aws.ToString(out.Invalidation.Id)
	}
	d.log.Info().Str("distribution", distributionID).Str("invalidation", id).Msg("invalidated distribution")
	return id, nil
}

func (d *Deployer) emptyBucket(ctx context.Context, bucket string) (int, error) {
	deleted := 0
	paginator := s3.NewListObjectsV2Paginator(d.clients.S3, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("listing bucket %s: %w", bucket, err)
		}

		for start := 0; start < len(page.Contents); start += deleteBatch {
			end := min(start+deleteBatch, len(page.Contents))
			objects := make([]s3types.ObjectIdentifier, 0, end-start)
			for _, obj := range page.Contents[start:end] {
				objects = append(objects, s3types.ObjectIdentifier{Key: obj.Key})
			}

			if _, err := d.clients.S3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(bucket),
				Delete: &s3types.Delete{Objects: objects, Quiet: aws.Bool(true)},
			}); err != nil {
				return deleted, fmt.Errorf("emptying bucket %s: %w", bucket, err)
			}
			deleted += len(objects)
		}
	}
	return deleted, nil
}

func outputs(st *cftypes.Stack) map[string]string {
	out := make(map[string]string, len(st.Outputs))
	for _, o := range st.Outputs {
		out[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	return out
}
