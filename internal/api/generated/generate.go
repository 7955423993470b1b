package generated

//go:generate oapi-codegen -config ../../../api/oapi-codegen.yaml ../../../api/openapi.yaml
