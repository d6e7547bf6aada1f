// Package formats provides parsers for robot asset file formats.
package formats
