// Package s3 provides the AWS::S3 resource types used by the workshop stack.
package s3

// Attributes available through GetAtt on a Bucket.
const (
	AttrArn                = "Arn"
	AttrDomainName         = "DomainName"
	AttrRegionalDomainName = "RegionalDomainName"
)

// Bucket is AWS::S3::Bucket.
type Bucket struct {
	BucketName                     any                                   `json:"BucketName,omitempty"`
	PublicAccessBlockConfiguration *Bucket_PublicAccessBlockConfiguration `json:"PublicAccessBlockConfiguration,omitempty"`
	Tags                           []Tag                                 `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Bucket) ResourceType() string { return "AWS::S3::Bucket" }

// Bucket_PublicAccessBlockConfiguration is the bucket's public access block.
type Bucket_PublicAccessBlockConfiguration struct {
	BlockPublicAcls       bool `json:"BlockPublicAcls,omitempty"`
	BlockPublicPolicy     bool `json:"BlockPublicPolicy,omitempty"`
	IgnorePublicAcls      bool `json:"IgnorePublicAcls,omitempty"`
	RestrictPublicBuckets bool `json:"RestrictPublicBuckets,omitempty"`
}

// BlockAll returns a public access block with every switch turned on.
func BlockAll() *Bucket_PublicAccessBlockConfiguration {
	return &Bucket_PublicAccessBlockConfiguration{
		BlockPublicAcls:       true,
		BlockPublicPolicy:     true,
		IgnorePublicAcls:      true,
		RestrictPublicBuckets: true,
	}
}

// Tag is a resource tag.
type Tag struct {
	Key   string `json:"Key"`
	Value any    `json:"Value"`
}

// BucketPolicy is AWS::S3::BucketPolicy.
type BucketPolicy struct {
	Bucket         any `json:"Bucket"`
	PolicyDocument any `json:"PolicyDocument"`
}

// ResourceType returns the CloudFormation type.
func (BucketPolicy) ResourceType() string { return "AWS::S3::BucketPolicy" }
