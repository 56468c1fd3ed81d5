// Package intrinsics provides the CloudFormation intrinsic functions used by the
// workshop stack.
//
// The core intrinsic types are re-exported from cloudformation-schema-go; this
// package adds the IAM policy helpers the stack's bucket policy and service
// roles need.
//
//	Ref{LogicalName: "SiteBucket"}         → {"Ref": "SiteBucket"}
//	Sub{String: "${AWS::AccountId}-site"}  → {"Fn::Sub": "${AWS::AccountId}-site"}
//	Join{Delimiter: "", Values: []any{...}} → {"Fn::Join": ["", [...]]}
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// SubWithMap is Fn::Sub with a variable map.
	SubWithMap = intrinsics.SubWithMap

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join
)

// Concat joins values with an empty delimiter, the common case for building
// ARNs and URLs out of references.
func Concat(values ...any) Join {
	return Join{Delimiter: "", Values: values}
}
