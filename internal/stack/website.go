package stack

import (
	workshop "github.com/dineshpithiya/cdk-workshop"
	. "github.com/dineshpithiya/cdk-workshop/intrinsics"
	"github.com/dineshpithiya/cdk-workshop/resources/cloudfront"
	"github.com/dineshpithiya/cdk-workshop/resources/s3"
)

// Logical IDs of the static website.
const (
	SiteBucket       workshop.LogicalID = "SiteBucket"
	SiteBucketPolicy workshop.LogicalID = "SiteBucketPolicy"
	SiteOAI          workshop.LogicalID = "cloudfrontOAI"
	SiteDistribution workshop.LogicalID = "SiteDistribution"
)

// Output names read back after deploy.
const (
	OutputSite                   = "Site"
	OutputBucket                 = "Bucket"
	OutputDistributionID         = "DistributionId"
	OutputDistributionDomainName = "DistributionDomainName"
	OutputEndpoint               = "Endpoint"
)

// AutoDeleteTag marks buckets that destroy empties before deleting the stack.
// Destroy leaves the objects of a bucket without it.
const AutoDeleteTag = "cdk-workshop:auto-delete-objects"

const siteDomain = "${AWS::AccountId}-static-website"

const siteOriginID = "SiteOrigin"

func (b *workshopBuilder) addWebsite() {
	site := b.props.Config.Site

	b.add(SiteOAI, &cloudfront.CloudFrontOriginAccessIdentity{
		CloudFrontOriginAccessIdentityConfig: cloudfront.CloudFrontOriginAccessIdentity_Config{
			Comment: "OAI for " + b.Name(),
		},
	})

	b.add(SiteBucket, &s3.Bucket{
		BucketName:                     Sub{String: siteDomain},
		PublicAccessBlockConfiguration: s3.BlockAll(),
		Tags:                           []s3.Tag{{Key: AutoDeleteTag, Value: "true"}},
	}, WithRemovalPolicy(workshop.RemovalDestroy))

	b.add(SiteBucketPolicy, &s3.BucketPolicy{
		Bucket: SiteBucket.Ref(),
		PolicyDocument: NewPolicyDocument(PolicyStatement{
			Effect:    "Allow",
			Principal: CanonicalUserPrincipal{SiteOAI.Attr(cloudfront.AttrS3CanonicalUserId)},
			Action:    "s3:GetObject",
			Resource:  Concat(SiteBucket.Attr(s3.AttrArn), "/*"),
		}),
	})

	config := cloudfront.Distribution_DistributionConfig{
		Enabled:           true,
		DefaultRootObject: site.IndexDocument,
		HttpVersion:       cloudfront.HTTPVersion2,
		IPV6Enabled:       true,
		Origins: []cloudfront.Distribution_Origin{{
			Id:         siteOriginID,
			DomainName: SiteBucket.Attr(s3.AttrRegionalDomainName),
			S3OriginConfig: &cloudfront.Distribution_S3OriginConfig{
				OriginAccessIdentity: Concat("origin-access-identity/cloudfront/", SiteOAI.Ref()),
			},
		}},
		DefaultCacheBehavior: cloudfront.Distribution_DefaultCacheBehavior{
			TargetOriginId:       siteOriginID,
			ViewerProtocolPolicy: cloudfront.ViewerProtocolRedirectHTTPS,
			AllowedMethods:       cloudfront.AllowGetHeadOptions,
			CachedMethods:        cloudfront.CacheGetHead,
			Compress:             true,
			CachePolicyId:        cloudfront.CachePolicyCachingOptimized,
		},
		CustomErrorResponses: []cloudfront.Distribution_CustomErrorResponse{{
			ErrorCode:          403,
			ResponseCode:       403,
			ResponsePagePath:   "/" + site.ErrorDocument,
			ErrorCachingMinTTL: int(site.ErrorCachingTTL.Seconds()),
		}},
	}

	// The minimum protocol only applies to a custom certificate; the default
	// CloudFront certificate always negotiates TLSv1.
	if site.CertificateARN != "" {
		if site.DomainName != "" {
			config.Aliases = []string{site.DomainName}
		}
		config.ViewerCertificate = &cloudfront.Distribution_ViewerCertificate{
			AcmCertificateArn:      site.CertificateARN,
			SslSupportMethod:       cloudfront.SSLSupportSNIOnly,
			MinimumProtocolVersion: cloudfront.MinimumProtocolTLS12_2021,
		}
	}

	b.add(SiteDistribution, &cloudfront.Distribution{DistributionConfig: config})

	b.Output(OutputSite, workshop.Output{Value: Sub{String: "http://" + siteDomain}})
	b.Output(OutputBucket, workshop.Output{Value: SiteBucket.Ref()})
	b.Output(OutputDistributionID, workshop.Output{Value: SiteDistribution.Ref()})
	b.Output(OutputDistributionDomainName, workshop.Output{
		Value: SiteDistribution.Attr("DomainName"),
	})
}
