package app

import _ "embed"

//go:embed openapi.yaml
var openapiSpec []byte
