// Package iam provides the AWS::IAM resource types used by the workshop stack.
package iam

import (
	. "github.com/dineshpithiya/cdk-workshop/intrinsics"
)

// AttrArn is the role ARN attribute.
const AttrArn = "Arn"

// Role is AWS::IAM::Role.
type Role struct {
	RoleName                 any    `json:"RoleName,omitempty"`
	Description              string `json:"Description,omitempty"`
	AssumeRolePolicyDocument any    `json:"AssumeRolePolicyDocument"`
	ManagedPolicyArns        []any  `json:"ManagedPolicyArns,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Role) ResourceType() string { return "AWS::IAM::Role" }

// AWSManagedPolicy returns the partition-aware ARN of an AWS managed policy,
// e.g. "service-role/AWSLambdaBasicExecutionRole".
func AWSManagedPolicy(name string) Join {
	return Concat("arn:", AWS_PARTITION, ":iam::aws:policy/"+name)
}

// AssumeRoleFor returns a trust policy letting the given service assume the role.
func AssumeRoleFor(service string) PolicyDocument {
	return NewPolicyDocument(PolicyStatement{
		Effect:    "Allow",
		Principal: ServicePrincipal{service},
		Action:    "sts:AssumeRole",
	})
}
