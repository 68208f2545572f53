package fakefs

import "github.com/google/uuid"

// NodeRequestType valid types are FileNodeType "file", DirNodeType "dir" and
// LinkNodeType "link"
type NodeRequestType string

const (
	FileNodeType NodeRequestType = "file"
	DirNodeType  NodeRequestType = "dir"
	LinkNodeType NodeRequestType = "link"
)

// NodeRequest has common fields embedded in concrete request types
type NodeRequest struct {
	Type NodeRequestType
	Name string
	UUID uuid.UUID // Optional ID so links can reference the node; uuid.Nil if unreferenced
}

// NodeRequestor is implemented by all node request types
type NodeRequestor interface {
	GetNodeRequest() *NodeRequest
}

func (r *NodeRequest) GetNodeRequest() *NodeRequest { return r }

// FileCreateRequest describes a file whose content is the concatenation of all
// its sources, in order.
type FileCreateRequest struct {
	NodeRequest
	Sources []ContentAdapter
}

// DirCreateRequest describes a directory and its children in insertion order.
type DirCreateRequest struct {
	NodeRequest
	Children []NodeRequestor
}

// LinkCreateRequest describes a link to the node whose request carries Target.
type LinkCreateRequest struct {
	NodeRequest
	Target uuid.UUID
}

var (
	_ NodeRequestor = (*FileCreateRequest)(nil)
	_ NodeRequestor = (*DirCreateRequest)(nil)
	_ NodeRequestor = (*LinkCreateRequest)(nil)
)
