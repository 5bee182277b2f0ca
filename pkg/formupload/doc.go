// Package formupload issues short-lived, scope-limited parameters for browser
// form uploads straight to an S3 bucket (AWS Signature Version 4 POST policies)
//
// The client never sees the secret key. It receives a base64 policy document,
// the credential scope and a signature derived through a date/region/service
// scoped key chain, and posts them with the file
//
// # Pipeline
//
//	sc, _ := formupload.NewSigningContext(creds, "eu-west-1", "s3", time.Now())
//	policy, _ := formupload.EncodePolicy(formupload.PolicyRequest{...}, sc)
//	chain, _ := formupload.DeriveKeyChain(creds.SecretKey, sc)
//	sig, _ := formupload.Sign(chain.Signing, policy)
//	fields, _ := formupload.AssembleForm(formupload.FormInput{...}, sc)
//
// Issuer runs the whole pipeline from a Config:
//
//	form, err := formupload.New().Issue(cfg)
//	json.NewEncoder(w).Encode(form)
//
// The SigningContext is built once per form. Rebuilding it between policy and
// signature risks crossing midnight and producing a form the service rejects
//
// # Errors
//
// ErrInvalidConfig covers empty scope fields and inconsistent policy bounds.
// ErrMissingInput covers empty HMAC inputs; Sign never digests an empty policy
//
// # Verification and uploads
//
// VerifyPost checks a submitted form the way the storage service does, which is
// useful for S3-compatible endpoints and tests. Client posts a file through a Form
package formupload
