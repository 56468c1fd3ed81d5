package stack

import (
	"errors"
	"fmt"
	"path/filepath"

	workshop "github.com/dineshpithiya/cdk-workshop"
	"github.com/dineshpithiya/cdk-workshop/internal/api"
	"github.com/dineshpithiya/cdk-workshop/internal/asset"
	"github.com/dineshpithiya/cdk-workshop/internal/config"
	"github.com/dineshpithiya/cdk-workshop/intrinsics"
	"github.com/dineshpithiya/cdk-workshop/resources/iam"
	"github.com/dineshpithiya/cdk-workshop/resources/lambda"
)

// Description is the template description of the workshop stack.
const Description = "cdk-workshop: REST API with request validation, static website behind CloudFront, Lambda layers demo"

// Asset IDs.
const (
	AssetHelloHandler  = "HelloHandler"
	AssetNodeJSHandler = "NodeJsLayerTest"
	AssetPythonHandler = "PythonLayerTest"
	AssetNodeJSLayer1  = "CommonNodeJsUtilsL1"
	AssetNodeJSLayer2  = "CommonNodeJsUtilsL2"
	AssetPythonLayer1  = "CommonPythonUtilsL1"
	AssetPythonLayer2  = "CommonPythonUtilsL2"
	AssetSiteContents  = "SiteContents"
)

// DefaultAssetBucket is used in the template when no asset bucket is configured.
const DefaultAssetBucket = "cdk-workshop-assets-${AWS::AccountId}-${AWS::Region}"

// AssetSource maps an asset ID to its directory.
type AssetSource struct {
	ID  string
	Dir string
}

// AssetSources lists every directory the workshop stack packages.
func AssetSources(cfg *config.Config) []AssetSource {
	return []AssetSource{
		{AssetHelloHandler, cfg.Assets.HelloHandler},
		{AssetNodeJSLayer1, cfg.Assets.NodeJSLayer1},
		{AssetNodeJSLayer2, cfg.Assets.NodeJSLayer2},
		{AssetNodeJSHandler, cfg.Assets.NodeJSHandler},
		{AssetPythonLayer1, cfg.Assets.PythonLayer1},
		{AssetPythonLayer2, cfg.Assets.PythonLayer2},
		{AssetPythonHandler, cfg.Assets.PythonHandler},
		{AssetSiteContents, cfg.Site.ContentsDir},
	}
}

// Bootstrap is the executable the provided.al2023 runtime starts.
const Bootstrap = "bootstrap"

// PrepareAssets stages every asset into cfg.OutDir and writes the manifest.
// A missing source directory fails the whole run, as does a HelloHandler
// directory without an executable bootstrap.
func PrepareAssets(cfg *config.Config) (map[string]asset.Asset, error) {
	staged := make(map[string]asset.Asset)
	var list []asset.Asset
	var errs []error

	for _, src := range AssetSources(cfg) {
		if src.ID == AssetHelloHandler {
			if err := asset.RequireExecutable(src.Dir, Bootstrap); err != nil {
				errs = append(errs, fmt.Errorf("asset %s: %w (build it with: GOOS=linux GOARCH=arm64 go build -tags lambda.norpc -o %s ./cmd/hello-handler)",
					src.ID, err, filepath.Join(src.Dir, Bootstrap)))
				continue
			}
		}
		a, err := asset.Stage(cfg.OutDir, src.ID, src.Dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		staged[src.ID] = a
		list = append(list, a)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := asset.WriteManifest(cfg.OutDir, list); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return staged, nil
}

// Props is the input to NewWorkshop.
type Props struct {
	Config *config.Config
	API    *api.Definition
	// Assets maps asset IDs to staged archives.
	Assets map[string]asset.Asset
}

// NewWorkshop builds the complete workshop stack: the REST API and its
// handler, the static website and the Lambda layers demo.
func NewWorkshop(props Props) (*Stack, error) {
	if props.Config == nil || props.API == nil {
		return nil, errors.New("workshop stack needs a config and an API definition")
	}

	description := props.Config.Description
	if description == "" {
		description = Description
	}

	b := &workshopBuilder{
		Stack: New(props.Config.StackName, description),
		props: props,
	}

	b.addAPI()
	b.addWebsite()
	b.addLayers()

	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	return b.Stack, nil
}

// workshopBuilder collects resources and errors while the stack is assembled.
type workshopBuilder struct {
	*Stack
	props Props
	errs  []error
	// preflight lists the OPTIONS methods of path resources.
	preflight []workshop.LogicalID
}

func (b *workshopBuilder) add(id workshop.LogicalID, r workshop.Resource, opts ...Option) {
	if err := b.Add(id, r, opts...); err != nil {
		b.errs = append(b.errs, err)
	}
}

func (b *workshopBuilder) assetBucket() any {
	if b.props.Config.AssetBucket != "" {
		return b.props.Config.AssetBucket
	}
	return intrinsics.Sub{String: DefaultAssetBucket}
}

// assetKey returns the object key of a staged asset.
func (b *workshopBuilder) assetKey(id string) string {
	a, ok := b.props.Assets[id]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("asset %s has not been staged", id))
		return ""
	}
	return a.ObjectKey
}

func (b *workshopBuilder) code(assetID string) lambda.Function_Code {
	return lambda.Function_Code{S3Bucket: b.assetBucket(), S3Key: b.assetKey(assetID)}
}

// function adds fn with a service role allowed to write CloudWatch logs.
func (b *workshopBuilder) function(id workshop.LogicalID, fn *lambda.Function) {
	role := id + "ServiceRole"
	b.add(role, &iam.Role{
		AssumeRolePolicyDocument: iam.AssumeRoleFor("lambda.amazonaws.com"),
		ManagedPolicyArns: []any{
			iam.AWSManagedPolicy("service-role/AWSLambdaBasicExecutionRole"),
		},
	})

	fn.Role = role.Attr(iam.AttrArn)
	b.add(id, fn, DependsOn(role))
}
