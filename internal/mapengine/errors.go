package mapengine

import "errors"

var (
	ErrLayerExists     = errors.New("layer already exists")
	ErrLayerNotFound   = errors.New("layer not found")
	ErrSourceExists    = errors.New("source already exists")
	ErrSourceNotFound  = errors.New("source not found")
	ErrSourceInUse     = errors.New("source is used by a layer")
	ErrImageExists     = errors.New("image already exists")
	ErrMapRemoved      = errors.New("map has been removed")
	ErrNotClustered    = errors.New("source is not clustered")
	ErrClusterNotFound = errors.New("cluster not found")
	ErrFeatureNotFound = errors.New("feature not found")
)
