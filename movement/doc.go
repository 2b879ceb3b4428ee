// Package movement 实现角色的逐帧运动学控制：
// 读取轴输入，着地/空中移动，重力积分，单次二段跳与 yaw 旋转。
// 碰撞、输入与朝向都通过窄接口注入，步进逻辑可以脱离运行时单独测试。
package movement
