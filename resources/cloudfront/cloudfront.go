// Package cloudfront provides the AWS::CloudFront resource types used by the
// static website.
package cloudfront

// AttrS3CanonicalUserId is the OAI attribute used in S3 bucket policies.
const AttrS3CanonicalUserId = "S3CanonicalUserId"

// Common distribution settings.
const (
	// CachePolicyCachingOptimized is the ID of the AWS managed CachingOptimized policy.
	CachePolicyCachingOptimized = "658327ea-f89d-4fab-a63d-7e88639e58f6"
	ViewerProtocolRedirectHTTPS = "redirect-to-https"
	MinimumProtocolTLS12_2021   = "TLSv1.2_2021"
	SSLSupportSNIOnly           = "sni-only"
	HTTPVersion2                = "http2"
)

// Method sets accepted by a cache behavior.
var (
	AllowGetHeadOptions = []string{"GET", "HEAD", "OPTIONS"}
	CacheGetHead        = []string{"GET", "HEAD"}
)

// CloudFrontOriginAccessIdentity is AWS::CloudFront::CloudFrontOriginAccessIdentity.
type CloudFrontOriginAccessIdentity struct {
	CloudFrontOriginAccessIdentityConfig CloudFrontOriginAccessIdentity_Config `json:"CloudFrontOriginAccessIdentityConfig"`
}

// ResourceType returns the CloudFormation type.
func (CloudFrontOriginAccessIdentity) ResourceType() string {
	return "AWS::CloudFront::CloudFrontOriginAccessIdentity"
}

// CloudFrontOriginAccessIdentity_Config carries the identity's comment.
type CloudFrontOriginAccessIdentity_Config struct {
	Comment string `json:"Comment"`
}

// Distribution is AWS::CloudFront::Distribution.
type Distribution struct {
	DistributionConfig Distribution_DistributionConfig `json:"DistributionConfig"`
}

// ResourceType returns the CloudFormation type.
func (Distribution) ResourceType() string { return "AWS::CloudFront::Distribution" }

// Distribution_DistributionConfig is the body of a distribution.
type Distribution_DistributionConfig struct {
	Enabled              bool                               `json:"Enabled"`
	Comment              string                             `json:"Comment,omitempty"`
	Aliases              []string                           `json:"Aliases,omitempty"`
	DefaultRootObject    string                             `json:"DefaultRootObject,omitempty"`
	Origins              []Distribution_Origin              `json:"Origins"`
	DefaultCacheBehavior Distribution_DefaultCacheBehavior  `json:"DefaultCacheBehavior"`
	CustomErrorResponses []Distribution_CustomErrorResponse `json:"CustomErrorResponses,omitempty"`
	ViewerCertificate    *Distribution_ViewerCertificate    `json:"ViewerCertificate,omitempty"`
	HttpVersion          string                             `json:"HttpVersion,omitempty"`
	IPV6Enabled          bool                               `json:"IPV6Enabled,omitempty"`
}

// Distribution_Origin is one origin of the distribution.
type Distribution_Origin struct {
	Id             string                       `json:"Id"`
	DomainName     any                          `json:"DomainName"`
	S3OriginConfig *Distribution_S3OriginConfig `json:"S3OriginConfig,omitempty"`
}

// Distribution_S3OriginConfig binds an S3 origin to an origin access identity.
type Distribution_S3OriginConfig struct {
	OriginAccessIdentity any `json:"OriginAccessIdentity,omitempty"`
}

// Distribution_DefaultCacheBehavior is the catch-all cache behavior.
type Distribution_DefaultCacheBehavior struct {
	TargetOriginId       string   `json:"TargetOriginId"`
	ViewerProtocolPolicy string   `json:"ViewerProtocolPolicy"`
	AllowedMethods       []string `json:"AllowedMethods,omitempty"`
	CachedMethods        []string `json:"CachedMethods,omitempty"`
	Compress             bool     `json:"Compress,omitempty"`
	CachePolicyId        string   `json:"CachePolicyId,omitempty"`
}

// Distribution_CustomErrorResponse rewrites an origin error status.
// ErrorCachingMinTTL is in seconds.
type Distribution_CustomErrorResponse struct {
	ErrorCode          int    `json:"ErrorCode"`
	ResponseCode       int    `json:"ResponseCode,omitempty"`
	ResponsePagePath   string `json:"ResponsePagePath,omitempty"`
	ErrorCachingMinTTL int    `json:"ErrorCachingMinTTL,omitempty"`
}

// Distribution_ViewerCertificate configures TLS for custom domain names.
type Distribution_ViewerCertificate struct {
	AcmCertificateArn      any    `json:"AcmCertificateArn,omitempty"`
	SslSupportMethod       string `json:"SslSupportMethod,omitempty"`
	MinimumProtocolVersion string `json:"MinimumProtocolVersion,omitempty"`
}
