// Package catalog loads report template documents (YAML or JSON) from
// embedded and on-disk sources, checks them against the template schema and
// keeps them available by id. Directories can be watched for changes.
package catalog
