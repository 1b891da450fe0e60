package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ankyFramesgivingABI is the subset of the AnkyFramesgiving contract ABI the indexer reads
const ankyFramesgivingABI = `[
	{"type":"event","name":"SessionStarted","anonymous":false,"inputs":[
		{"name":"fid","type":"uint256","indexed":true},
		{"name":"sessionId","type":"string","indexed":false},
		{"name":"startTime","type":"uint256","indexed":false}]},
	{"type":"event","name":"SessionEndedAbruptly","anonymous":false,"inputs":[
		{"name":"fid","type":"uint256","indexed":true},
		{"name":"sessionId","type":"string","indexed":false}]},
	{"type":"event","name":"SessionEnded","anonymous":false,"inputs":[
		{"name":"fid","type":"uint256","indexed":true},
		{"name":"isAnky","type":"bool","indexed":false}]},
	{"type":"event","name":"AnkyWritten","anonymous":false,"inputs":[
		{"name":"fid","type":"uint256","indexed":true},
		{"name":"sessionId","type":"string","indexed":false},
		{"name":"ipfsHash","type":"string","indexed":false},
		{"name":"writtenAt","type":"uint256","indexed":false}]},
	{"type":"event","name":"AnkyMinted","anonymous":false,"inputs":[
		{"name":"fid","type":"uint256","indexed":true},
		{"name":"ipfsHash","type":"string","indexed":false},
		{"name":"tokenId","type":"uint256","indexed":false}]},
	{"type":"function","name":"getCompletedSessionCount","stateMutability":"view",
		"inputs":[{"name":"fid","type":"uint256"}],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"completedSessions","stateMutability":"view",
		"inputs":[{"name":"","type":"uint256"},{"name":"","type":"uint256"}],
		"outputs":[{"name":"","type":"string"}]}
]`

// Contract event and method names
const (
	eventSessionStarted       = "SessionStarted"
	eventSessionEndedAbruptly = "SessionEndedAbruptly"
	eventSessionEnded         = "SessionEnded"
	eventAnkyWritten          = "AnkyWritten"
	eventAnkyMinted           = "AnkyMinted"

	methodCompletedSessionCount = "getCompletedSessionCount"
	methodCompletedSessions     = "completedSessions"
)

// AnkyABI is the parsed contract ABI
var AnkyABI = mustParseABI(ankyFramesgivingABI)

// EventSignatures are the topic0 hashes of every lifecycle event, in subscription order
var EventSignatures = []common.Hash{
	AnkyABI.Events[eventSessionStarted].ID,
	AnkyABI.Events[eventSessionEndedAbruptly].ID,
	AnkyABI.Events[eventSessionEnded].ID,
	AnkyABI.Events[eventAnkyWritten].ID,
	AnkyABI.Events[eventAnkyMinted].ID,
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
