// Package hlo is a library to build and work with a graph-based high level
// IR for loop optimisation passes.
//
// A Module owns an entry Computation and any number of embedded Computations
// (loop bodies and conditions). A Computation is an ordered collection of
// Instructions with a single Parameter and a designated root instruction
// whose value is the computation's result. Instructions form an acyclic data
// dependency graph; control dependency edges add ordering constraints that
// carry no data.
//
// The textual form of a Module (see WriteTo) can be parsed back with the
// 'parse' subpackage, which is typically used for test fixtures.
//
package hlo
