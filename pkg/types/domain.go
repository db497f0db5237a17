package types

// Model represents a discoverable model file on disk.
type Model struct {
	// Stable identifier for the model (the file name).
	// example: dialogpt-medium.Q4_K_M.gguf
	ID string `json:"id" example:"dialogpt-medium.Q4_K_M.gguf"`
	// Human-friendly name.
	// example: dialogpt-medium.Q4_K_M
	Name string `json:"name" example:"dialogpt-medium.Q4_K_M"`
	// Absolute path to the model file on disk.
	// example: /home/user/models/dialogpt-medium.Q4_K_M.gguf
	Path string `json:"path" example:"/home/user/models/dialogpt-medium.Q4_K_M.gguf"`
	// Quantization level parsed from the file name, if any.
	// example: Q4_K_M
	Quant string `json:"quant,omitempty" example:"Q4_K_M"`
	// Size of the file in bytes.
	// example: 379000000
	SizeBytes int64 `json:"size_bytes,omitempty" example:"379000000"`
}
