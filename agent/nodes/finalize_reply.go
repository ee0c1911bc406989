package orchestratornode

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, errNilGraphState
	}
	if in.LoopErr != nil {
		return GraphOutput{Rounds: in.Rounds}, in.LoopErr
	}
	return GraphOutput{Reply: in.Reply, Rounds: in.Rounds}, nil
}
