// Package resource defines the collaborators the process table hands owned resources to:
// kernel stacks, address spaces, open files and directory handles.
package resource

// Stack represents an allocated kernel stack
type Stack struct {
	ID   int
	Size int
}

// AddressSpace represents a process address space
type AddressSpace struct {
	ID    int
	Image string
	Pages int
}

// File represents an open file description shared by duplicated descriptors
type File struct {
	ID   int
	Path string
}

// Inode represents a directory handle
type Inode struct {
	ID   int
	Path string
}

// Stacks allocates kernel stacks
type Stacks interface {
	Alloc() (*Stack, error)
	Free(stack *Stack)
}

// AddressSpaces sets up, duplicates and releases address spaces
type AddressSpaces interface {
	Setup(image string) (*AddressSpace, error)
	Copy(src *AddressSpace) (*AddressSpace, error)
	Free(space *AddressSpace)
}

// Files manages open files and directory handles
type Files interface {
	Root() *Inode
	Open(path string) (*File, error)
	Dup(file *File) *File
	Close(file *File)
	Idup(inode *Inode) *Inode
	Iput(inode *Inode)
}
