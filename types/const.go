package types

// Threshold for floating point comparisons with zero.
const floatCmpEpsilon float32 = 1e-7
