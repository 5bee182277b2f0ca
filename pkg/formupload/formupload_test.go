package formupload

import (
	"time"
)

// Shared fixtures matching the browser upload example
const (
	testAccessKeyID = "accesskeyid"
	testSecretKey   = "nosecret"
	testRegion      = "eu-west-1"
	testService     = "s3"
	testBucket      = "my-bucket"
	testACL         = "public-read"

	goldenPolicyJSON = `{"expiration":"2024-03-05T10:22:30.123Z","conditions":[{"bucket":"my-bucket"},{"acl":"public-read"},["content-length-range",0,5242880],["starts-with","$Content-Type","image/"],["starts-with","$key",""],{"x-amz-algorithm":"AWS4-HMAC-SHA256"},{"x-amz-date":"20240305T000000Z"},{"x-amz-credential":"accesskeyid/20240305/eu-west-1/s3/aws4_request"},{"x-amz-server-side-encryption":"AES256"}]}`
	goldenSignature  = "2bae45ab2a2ddbacc18ada2d9cbf57060ea1463c61c197b570ab3de7a0b9252e"
	goldenSigningKey = "a961c0d8c5d64648efa1215e0d367c8b4e00fea8a412a9df05e1fe29ac93dca6"
)

var testNow = time.Date(2024, 3, 5, 10, 20, 30, 123000000, time.UTC)

func testCredentials() Credentials {
	return Credentials{AccessKeyID: testAccessKeyID, SecretKey: testSecretKey}
}

func testPolicyRequest() PolicyRequest {
	return PolicyRequest{
		Bucket:            testBucket,
		ACL:               testACL,
		Expires:           120 * time.Second,
		ContentTypePrefix: "image/",
		ContentLengthMin:  0,
		ContentLengthMax:  5 * 1024 * 1024,
	}
}

func testConfig() Config {
	return Config{
		BucketName:              testBucket,
		ACL:                     testACL,
		ExpiresIntervalSeconds:  120,
		ContentTypePrefix:       "image/",
		ContentLengthMinBytes:   0,
		ContentLengthMaxBytes:   5242880,
		FileDestinationTemplate: "user/user/filename.png",
		Region:                  testRegion,
		Service:                 testService,
		AccessKeyID:             testAccessKeyID,
		SecretKey:               testSecretKey,
	}
}
