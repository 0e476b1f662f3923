package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quorumlab/stakequorum"
)

// stakeFile is the YAML description of a committee:
//
//	epoch: 1
//	authorities:
//	  - id: 1
//	    stake: 100
//	  - id: 2
//	    stake: 50
type stakeFile struct {
	Epoch       stakequorum.Epoch `yaml:"epoch"`
	Authorities []struct {
		ID    stakequorum.ID    `yaml:"id"`
		Stake stakequorum.Stake `yaml:"stake"`
	} `yaml:"authorities"`
}

// readCommittee loads a committee from a stake file.
func readCommittee(path string) (*stakequorum.Committee, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file stakeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing stake file %s: %w", path, err)
	}
	stakes := make(map[stakequorum.ID]stakequorum.Stake, len(file.Authorities))
	for _, a := range file.Authorities {
		if _, ok := stakes[a.ID]; ok {
			return nil, fmt.Errorf("stake file %s lists %s twice", path, a.ID)
		}
		stakes[a.ID] = a.Stake
	}
	return stakequorum.NewCommittee(file.Epoch, stakes)
}
