package formupload

// Signature Version 4 POST form constants
const (
	// Algorithm identifies AWS Signature Version 4 with HMAC-SHA256
	Algorithm = "AWS4-HMAC-SHA256"

	// ServerSideEncryptionAES256 requests SSE-S3 encryption of the stored object
	ServerSideEncryptionAES256 = "AES256"

	// ScopeTerminator closes every credential scope and is the last key derivation message
	ScopeTerminator = "aws4_request"

	// DefaultService is the service identifier used when none is configured
	DefaultService = "s3"

	// DefaultProviderDomain is appended to {bucket}.{service}-{region} to form the endpoint
	DefaultProviderDomain = "amazonaws.com"

	// ShortTimeFormat is the credential scope date. Format: YYYYMMDD
	ShortTimeFormat = "20060102"

	// amzDateSuffix pins x-amz-date to midnight of the signing day
	amzDateSuffix = "T000000Z"

	// ExpirationFormat is ISO8601 UTC with millisecond precision, e.g. 2014-10-17T09:00:00.000Z
	ExpirationFormat = "2006-01-02T15:04:05.000Z"

	// FilenamePlaceholder is resolved by the receiving service to the uploaded file's name
	FilenamePlaceholder = "${filename}"

	// UUIDPlaceholder is replaced with a random UUID each time a form is issued
	UUIDPlaceholder = "{uuid}"
)

// Form field and policy condition names
const (
	FieldKey                  = "key"
	FieldACL                  = "acl"
	FieldBucket               = "bucket"
	FieldAlgorithm            = "x-amz-algorithm"
	FieldServerSideEncryption = "x-amz-server-side-encryption"
	FieldCredential           = "x-amz-credential"
	FieldDate                 = "x-amz-date"
	FieldSecurityToken        = "x-amz-security-token"
	FieldSignature            = "x-amz-signature"
	FieldPolicy               = "policy"
	FieldContentType          = "Content-Type"
	FieldFile                 = "file"

	ConditionContentLengthRange = "content-length-range"
	ConditionStartsWith         = "starts-with"
	ConditionEq                 = "eq"
)

// Form submission constants
const (
	FormMethod  = "POST"
	FormEnctype = "multipart/form-data"
)
